package handler

import (
	"net/http"
	"path/filepath"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdenesHandler struct{ svc service.OrdenService }

func NewOrdenesHandler(svc service.OrdenService) *OrdenesHandler { return &OrdenesHandler{svc: svc} }

// Crear godoc
// @Summary      Crear orden de compra
// @Description  El total se calcula con los precios vigentes del catálogo; nunca se toma del cliente.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearOrdenRequest true "Contenido y entrega"
// @Success      201  {object} dto.OrdenResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/ordenes [post]
func (h *OrdenesHandler) Crear(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	var req dto.CrearOrdenRequest
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

// ListarPropias godoc
// @Summary      Órdenes del usuario autenticado
// @Tags         ordenes
// @Produce      json
// @Security     BearerAuth
// @Param        estado query string false "Filtrar por estado"
// @Success      200  {array} dto.OrdenResponse
// @Router       /v1/ordenes [get]
func (h *OrdenesHandler) ListarPropias(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	uid := sol.ID.String()
	h.listar(c, &uid)
}

// ListarTodas serves the admin listing of every order.
func (h *OrdenesHandler) ListarTodas(c *gin.Context) {
	h.listar(c, nil)
}

func (h *OrdenesHandler) ListarPorUsuario(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	uid := id.String()
	h.listar(c, &uid)
}

func (h *OrdenesHandler) listar(c *gin.Context, usuarioID *string) {
	var filter dto.OrdenFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	filter.UsuarioID = usuarioID
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) ObtenerPorID(c *gin.Context) {
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

// CambiarEstado godoc
// @Summary      Cambiar estado de la orden
// @Description  Recalcula el total con los precios vigentes. Repetir el mismo estado no altera la orden.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                        true "UUID de la orden"
// @Param        body body dto.CambiarEstadoOrdenRequest true "Nuevo estado"
// @Success      200  {object} dto.OrdenResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/ordenes/{id}/estado [put]
func (h *OrdenesHandler) CambiarEstado(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarEstadoOrdenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), id, sol, req.Estado)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) Eliminar(c *gin.Context) {
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

// Comprobante godoc
// @Summary      Descargar comprobante PDF
// @Tags         ordenes
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la orden"
// @Success      200 {file} file
// @Router       /v1/ordenes/{id}/comprobante [get]
func (h *OrdenesHandler) Comprobante(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ruta, err := h.svc.Comprobante(c.Request.Context(), id, sol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(ruta, filepath.Base(ruta))
}
