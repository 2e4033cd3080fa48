package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearDireccionRequest struct {
	Alias           string  `json:"alias"            validate:"required,max=50"`
	Parroquia       string  `json:"parroquia"        validate:"required,max=100"`
	CallePrincipal  string  `json:"calle_principal"  validate:"required,max=150"`
	CalleSecundaria *string `json:"calle_secundaria" validate:"omitempty,max=150"`
	NumeroCasa      string  `json:"numero_casa"      validate:"required,max=20"`
	Referencia      *string `json:"referencia"       validate:"omitempty,max=255"`
	IsDefault       bool    `json:"is_default"`
}

type ActualizarDireccionRequest struct {
	Alias           *string `json:"alias"            validate:"omitempty,min=1,max=50"`
	Parroquia       *string `json:"parroquia"        validate:"omitempty,min=1,max=100"`
	CallePrincipal  *string `json:"calle_principal"  validate:"omitempty,min=1,max=150"`
	CalleSecundaria *string `json:"calle_secundaria" validate:"omitempty,max=150"`
	NumeroCasa      *string `json:"numero_casa"      validate:"omitempty,min=1,max=20"`
	Referencia      *string `json:"referencia"       validate:"omitempty,max=255"`
}

type PredeterminadaRequest struct {
	IsDefault *bool `json:"is_default" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DireccionResponse struct {
	ID              string  `json:"id"`
	Alias           string  `json:"alias"`
	Parroquia       string  `json:"parroquia"`
	CallePrincipal  string  `json:"calle_principal"`
	CalleSecundaria *string `json:"calle_secundaria"`
	NumeroCasa      string  `json:"numero_casa"`
	Referencia      *string `json:"referencia"`
	IsDefault       bool    `json:"is_default"`
}
