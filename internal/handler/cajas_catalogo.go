package handler

import (
	"net/http"

	"cuentame/internal/dto"
	"cuentame/internal/service"

	"github.com/gin-gonic/gin"
)

// ── Cajas predefinidas ───────────────────────────────────────────────────────

type CajasPredefinidasHandler struct {
	svc     service.CajaPredefinidaService
	uploads Uploads
}

func NewCajasPredefinidasHandler(svc service.CajaPredefinidaService, uploads Uploads) *CajasPredefinidasHandler {
	return &CajasPredefinidasHandler{svc: svc, uploads: uploads}
}

func (h *CajasPredefinidasHandler) Crear(c *gin.Context) {
	var req dto.CrearCajaPredefinidaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajasPredefinidasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasPredefinidasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasPredefinidasHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarCajaPredefinidaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasPredefinidasHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CajasPredefinidasHandler) SubirImagen(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ruta, ok := h.uploads.guardar(c)
	if !ok {
		return
	}
	if err := h.svc.SubirImagen(c.Request.Context(), id, ruta); err != nil {
		descartar(ruta)
		respondError(c, err)
		return
	}
	aceptado(c)
}

// ── Cajas personalizadas (plantillas) ────────────────────────────────────────

type CajasPersonalizadasHandler struct {
	svc     service.CajaPersonalizadaService
	uploads Uploads
}

func NewCajasPersonalizadasHandler(svc service.CajaPersonalizadaService, uploads Uploads) *CajasPersonalizadasHandler {
	return &CajasPersonalizadasHandler{svc: svc, uploads: uploads}
}

// Crear godoc
// @Summary      Crear plantilla de caja personalizada
// @Tags         cajas-personalizadas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearCajaPersonalizadaRequest true "Plantilla"
// @Success      201  {object} dto.CajaPersonalizadaResponse
// @Failure      400  {object} apierror.ValidationError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cajas-personalizadas [post]
func (h *CajasPersonalizadasHandler) Crear(c *gin.Context) {
	var req dto.CrearCajaPersonalizadaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajasPersonalizadasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasPersonalizadasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasPersonalizadasHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarCajaPersonalizadaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasPersonalizadasHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CajasPersonalizadasHandler) SubirImagen(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ruta, ok := h.uploads.guardar(c)
	if !ok {
		return
	}
	if err := h.svc.SubirImagen(c.Request.Context(), id, ruta); err != nil {
		descartar(ruta)
		respondError(c, err)
		return
	}
	aceptado(c)
}
