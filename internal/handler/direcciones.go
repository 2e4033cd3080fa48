package handler

import (
	"net/http"

	"cuentame/internal/dto"
	"cuentame/internal/service"

	"github.com/gin-gonic/gin"
)

type DireccionesHandler struct{ svc service.DireccionService }

func NewDireccionesHandler(svc service.DireccionService) *DireccionesHandler {
	return &DireccionesHandler{svc: svc}
}

// Agregar godoc
// @Summary      Agregar dirección
// @Description  Máximo 5 por usuario; alias y número de casa no se repiten. Si is_default es true reemplaza a la predeterminada.
// @Tags         direcciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearDireccionRequest true "Dirección"
// @Success      201  {object} dto.DireccionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/direcciones [post]
func (h *DireccionesHandler) Agregar(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	var req dto.CrearDireccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Agregar(c.Request.Context(), sol.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DireccionesHandler) Listar(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), sol.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DireccionesHandler) Actualizar(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarDireccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, sol.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DireccionesHandler) EstablecerPredeterminada(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.PredeterminadaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EstablecerPredeterminada(c.Request.Context(), id, sol.ID, *req.IsDefault)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DireccionesHandler) Eliminar(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id, sol.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
