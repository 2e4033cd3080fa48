package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegistroRequest is shared by customer and administrator sign-up.
type RegistroRequest struct {
	Nombre   string `json:"nombre"   validate:"required,min=2,max=100"`
	Correo   string `json:"correo"   validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Telefono string `json:"telefono" validate:"required,numeric,min=7,max=15"`
}

type LoginRequest struct {
	Correo   string `json:"correo"   validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type CorreoRequest struct {
	Correo string `json:"correo" validate:"required,email"`
}

type VerificarOTPRequest struct {
	Correo string `json:"correo" validate:"required,email"`
	OTP    string `json:"otp"    validate:"required,len=6,numeric"`
}

type NuevaPasswordRequest struct {
	Password     string `json:"password"     validate:"required,min=8,max=72"`
	Confirmacion string `json:"confirmacion" validate:"required,eqfield=Password"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PerfilResponse struct {
	ID          string              `json:"id"`
	Nombre      string              `json:"nombre"`
	Correo      string              `json:"correo"`
	Telefono    string              `json:"telefono"`
	Rol         string              `json:"rol"`
	Verificado  bool                `json:"verificado"`
	Direcciones []DireccionResponse `json:"direcciones,omitempty"`
}

type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"` // seconds
	Perfil      PerfilResponse `json:"perfil"`
}

type MensajeResponse struct {
	Mensaje string `json:"mensaje"`
}
