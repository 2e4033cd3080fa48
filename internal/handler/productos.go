package handler

import (
	"net/http"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct {
	svc     service.ProductoService
	uploads Uploads
}

func NewProductosHandler(svc service.ProductoService, uploads Uploads) *ProductosHandler {
	return &ProductosHandler{svc: svc, uploads: uploads}
}

// Crear godoc
// @Summary      Crear producto
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearProductoRequest true "Producto"
// @Success      201  {object} dto.ProductoResponse
// @Failure      400  {object} apierror.ValidationError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/productos [post]
func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
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

// Listar godoc
// @Summary      Listar productos
// @Tags         productos
// @Produce      json
// @Param        nombre    query string false "Filtro por nombre"
// @Param        categoria query string false "predefinida | personalizable"
// @Param        page      query int    false "Página"
// @Param        limit     query int    false "Tamaño de página"
// @Success      200  {object} dto.ProductoListResponse
// @Router       /v1/productos [get]
func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros de paginación inválidos"))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
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

func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarProductoRequest
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

func (h *ProductosHandler) Eliminar(c *gin.Context) {
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

// SubirImagen godoc
// @Summary      Subir imagen de producto
// @Description  Guarda el archivo y agenda su asociación en segundo plano.
// @Tags         productos
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path     string true "UUID del producto"
// @Param        imagen formData file   true "Imagen (jpg, png, webp)"
// @Success      202
// @Router       /v1/productos/{id}/imagen [put]
func (h *ProductosHandler) SubirImagen(c *gin.Context) {
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
