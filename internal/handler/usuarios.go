package handler

import (
	"net/http"

	"cuentame/internal/dto"
	"cuentame/internal/middleware"
	"cuentame/internal/service"

	"github.com/gin-gonic/gin"
)

type UsuariosHandler struct{ svc service.UsuarioService }

func NewUsuariosHandler(svc service.UsuarioService) *UsuariosHandler {
	return &UsuariosHandler{svc: svc}
}

// Registro godoc
// @Summary      Registrar cliente
// @Description  Crea la cuenta y envía un código OTP de 6 dígitos al correo.
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Param        body body dto.RegistroRequest true "Datos del cliente"
// @Success      201  {object} dto.MensajeResponse
// @Failure      400  {object} apierror.ValidationError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/usuarios/registro [post]
func (h *UsuariosHandler) Registro(c *gin.Context) {
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

// Login godoc
// @Summary      Iniciar sesión (cliente)
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Param        body body dto.LoginRequest true "Credenciales"
// @Success      200  {object} dto.LoginResponse
// @Failure      401  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Router       /v1/usuarios/login [post]
func (h *UsuariosHandler) Login(c *gin.Context) {
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

func (h *UsuariosHandler) EnviarOTP(c *gin.Context) {
	var req dto.CorreoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ReenviarOTP(c.Request.Context(), req.Correo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) VerificarOTP(c *gin.Context) {
	var req dto.VerificarOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.VerificarOTP(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) Recuperar(c *gin.Context) {
	var req dto.CorreoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Recuperar(c.Request.Context(), req.Correo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) VerificarToken(c *gin.Context) {
	resp, err := h.svc.VerificarToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) NuevaPassword(c *gin.Context) {
	var req dto.NuevaPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.NuevaPassword(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Perfil godoc
// @Summary      Perfil del cliente autenticado
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.PerfilResponse
// @Router       /v1/usuarios/perfil [get]
func (h *UsuariosHandler) Perfil(c *gin.Context) {
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

// Logout revokes the presented token until it would have expired anyway.
func (h *UsuariosHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.ExpiresAt == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UsuariosHandler) ListarClientes(c *gin.Context) {
	resp, err := h.svc.ListarClientes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) EliminarCliente(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarCliente(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
