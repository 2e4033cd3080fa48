package handler

import (
	"net/http"

	"cuentame/internal/dto"
	"cuentame/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct{ svc service.AdminService }

func NewAdminHandler(svc service.AdminService) *AdminHandler { return &AdminHandler{svc: svc} }

// Registro godoc
// @Summary      Registrar administrador
// @Description  Crea la cuenta y envía el enlace de confirmación al correo.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body body dto.RegistroRequest true "Datos del administrador"
// @Success      201  {object} dto.MensajeResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/admin/registro [post]
func (h *AdminHandler) Registro(c *gin.Context) {
	var req dto.RegistroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registro(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AdminHandler) Confirmar(c *gin.Context) {
	resp, err := h.svc.Confirmar(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) Perfil(c *gin.Context) {
	sol, ok := solicitante(c)
	if !ok {
		return
	}
	resp, err := h.svc.Perfil(c.Request.Context(), sol.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
