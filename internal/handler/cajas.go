package handler

import (
	"net/http"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/service"

	"github.com/gin-gonic/gin"
)

type CajasHandler struct {
	svc     service.CajaService
	uploads Uploads
}

func NewCajasHandler(svc service.CajaService, uploads Uploads) *CajasHandler {
	return &CajasHandler{svc: svc, uploads: uploads}
}

// Crear godoc
// @Summary      Crear caja
// @Description  Crea una caja predefinida o personalizable. Las reglas de cada tipo se validan antes de guardar.
// @Tags         cajas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearCajaRequest true "Configuración de la caja"
// @Success      201  {object} dto.CajaResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cajas [post]
func (h *CajasHandler) Crear(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	var req dto.CrearCajaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), sol.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajasHandler) Listar(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), sol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasHandler) ObtenerPorID(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id, sol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Modificar caja
// @Description  Solo el dueño, y solo dentro de la ventana de edición posterior a la creación.
// @Tags         cajas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "UUID de la caja"
// @Param        body body dto.ActualizarCajaRequest true "Campos a cambiar"
// @Success      200  {object} dto.CajaResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Router       /v1/cajas/{id} [put]
func (h *CajasHandler) Actualizar(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarCajaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, sol, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasHandler) Eliminar(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id, sol); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CajasHandler) CambiarEstado(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarEstadoCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), id, req.Estado)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajasHandler) SubirImagen(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ruta, ok := h.uploads.guardar(c)
	if !ok {
		return
	}
	if err := h.svc.SubirImagen(c.Request.Context(), id, sol, ruta); err != nil {
		descartar(ruta)
		respondError(c, err)
		return
	}
	aceptado(c)
}
