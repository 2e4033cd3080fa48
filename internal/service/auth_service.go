package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/middleware"
	"cuentame/internal/model"
	"cuentame/internal/repository"
	"cuentame/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// AuthConfig groups the settings shared by customer and administrator auth.
type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	OTPTTL      time.Duration
	RecoveryTTL time.Duration
	FrontendURL string
}

// ── Clientes ─────────────────────────────────────────────────────────────────

type UsuarioService interface {
	Registro(ctx context.Context, req dto.RegistroRequest) (*dto.MensajeResponse, error)
	ReenviarOTP(ctx context.Context, correo string) (*dto.MensajeResponse, error)
	VerificarOTP(ctx context.Context, req dto.VerificarOTPRequest) (*dto.MensajeResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Perfil(ctx context.Context, id uuid.UUID) (*dto.PerfilResponse, error)
	Recuperar(ctx context.Context, correo string) (*dto.MensajeResponse, error)
	VerificarToken(ctx context.Context, token string) (*dto.MensajeResponse, error)
	NuevaPassword(ctx context.Context, token string, req dto.NuevaPasswordRequest) (*dto.MensajeResponse, error)
	Logout(ctx context.Context, jti string, expira time.Time) error
	ListarClientes(ctx context.Context) ([]dto.PerfilResponse, error)
	EliminarCliente(ctx context.Context, id uuid.UUID) error
}

type usuarioService struct {
	repo      repository.UsuarioRepository
	encolador Encolador
	revocador Revocador
	cfg       AuthConfig
	now       func() time.Time
}

func NewUsuarioService(
	repo repository.UsuarioRepository,
	encolador Encolador,
	revocador Revocador,
	cfg AuthConfig,
	now func() time.Time,
) UsuarioService {
	if now == nil {
		now = time.Now
	}
	return &usuarioService{repo: repo, encolador: encolador, revocador: revocador, cfg: cfg, now: now}
}

func (s *usuarioService) Registro(ctx context.Context, req dto.RegistroRequest) (*dto.MensajeResponse, error) {
	correo := normalizarCorreo(req.Correo)
	if _, err := s.repo.FindByCorreo(ctx, correo); err == nil {
		return nil, apierror.Conflict("", "El correo ya está registrado")
	} else if !esNoEncontrado(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	otp, err := generarOTP()
	if err != nil {
		return nil, err
	}
	expira := s.now().Add(s.cfg.OTPTTL)
	u := &model.Usuario{
		Nombre:       strings.TrimSpace(req.Nombre),
		Correo:       correo,
		PasswordHash: string(hash),
		Telefono:     req.Telefono,
		OTP:          &otp,
		OTPExpira:    &expira,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("crear usuario: %w", err)
	}
	s.enviar(ctx, worker.EmailOTP, u.Correo, u.Nombre, otp)
	return &dto.MensajeResponse{Mensaje: "Registro exitoso, revisa tu correo para verificar la cuenta"}, nil
}

func (s *usuarioService) ReenviarOTP(ctx context.Context, correo string) (*dto.MensajeResponse, error) {
	u, err := s.buscarPorCorreo(ctx, correo)
	if err != nil {
		return nil, err
	}
	if u.Verificado {
		return nil, apierror.Conflict("", "La cuenta ya está verificada")
	}
	otp, err := generarOTP()
	if err != nil {
		return nil, err
	}
	expira := s.now().Add(s.cfg.OTPTTL)
	u.OTP, u.OTPExpira = &otp, &expira
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.enviar(ctx, worker.EmailOTP, u.Correo, u.Nombre, otp)
	return &dto.MensajeResponse{Mensaje: "Se envió un nuevo código a tu correo"}, nil
}

func (s *usuarioService) VerificarOTP(ctx context.Context, req dto.VerificarOTPRequest) (*dto.MensajeResponse, error) {
	u, err := s.buscarPorCorreo(ctx, req.Correo)
	if err != nil {
		return nil, err
	}
	if u.Verificado {
		return &dto.MensajeResponse{Mensaje: "La cuenta ya está verificada"}, nil
	}
	if u.OTP == nil || u.OTPExpira == nil || s.now().After(*u.OTPExpira) {
		return nil, apierror.Validation("", "El código expiró, solicita uno nuevo")
	}
	if *u.OTP != req.OTP {
		return nil, apierror.Validation("", "Código incorrecto")
	}
	u.Verificado = true
	u.OTP, u.OTPExpira = nil, nil
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return &dto.MensajeResponse{Mensaje: "Cuenta verificada, ya puedes iniciar sesión"}, nil
}

func (s *usuarioService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	u, err := s.repo.FindByCorreo(ctx, normalizarCorreo(req.Correo))
	if err != nil {
		if esNoEncontrado(err) {
			return nil, credencialesInvalidas()
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, credencialesInvalidas()
	}
	if !u.Verificado {
		return nil, apierror.Forbidden(apierror.CodeAccountNotConfirmed, "Debes verificar tu cuenta antes de iniciar sesión")
	}
	token, err := emitirToken(s.cfg, u.ID, model.RolCliente, s.now())
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.cfg.TokenTTL.Seconds()),
		Perfil:      mapPerfil(*u),
	}, nil
}

func (s *usuarioService) Perfil(ctx context.Context, id uuid.UUID) (*dto.PerfilResponse, error) {
	u, err := s.repo.FindPerfil(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Usuario no encontrado")
		}
		return nil, err
	}
	resp := mapPerfil(*u)
	resp.Direcciones = make([]dto.DireccionResponse, len(u.Direcciones))
	for i, d := range u.Direcciones {
		resp.Direcciones[i] = mapDireccion(d)
	}
	return &resp, nil
}

func (s *usuarioService) Recuperar(ctx context.Context, correo string) (*dto.MensajeResponse, error) {
	u, err := s.buscarPorCorreo(ctx, correo)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	ttl := s.cfg.RecoveryTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	expira := s.now().Add(ttl)
	u.TokenRecup = &token
	u.TokenRecupExpira = &expira
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	link := strings.TrimRight(s.cfg.FrontendURL, "/") + "/recuperar/" + token
	s.enviar(ctx, worker.EmailRecuperacion, u.Correo, u.Nombre, link)
	return &dto.MensajeResponse{Mensaje: "Revisa tu correo para restablecer la contraseña"}, nil
}

func (s *usuarioService) VerificarToken(ctx context.Context, token string) (*dto.MensajeResponse, error) {
	if _, err := s.buscarPorToken(ctx, token); err != nil {
		return nil, err
	}
	return &dto.MensajeResponse{Mensaje: "Token válido, ya puedes crear una nueva contraseña"}, nil
}

func (s *usuarioService) NuevaPassword(ctx context.Context, token string, req dto.NuevaPasswordRequest) (*dto.MensajeResponse, error) {
	if req.Password != req.Confirmacion {
		return nil, apierror.Validation("", "Las contraseñas no coinciden")
	}
	u, err := s.buscarPorToken(ctx, token)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = string(hash)
	u.TokenRecup = nil
	u.TokenRecupExpira = nil
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return &dto.MensajeResponse{Mensaje: "Contraseña actualizada, ya puedes iniciar sesión"}, nil
}

// Logout denylists the token id for the rest of its lifetime.
func (s *usuarioService) Logout(ctx context.Context, jti string, expira time.Time) error {
	if s.revocador == nil || jti == "" {
		return nil
	}
	ttl := expira.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.revocador.Revocar(ctx, jti, ttl)
}

func (s *usuarioService) ListarClientes(ctx context.Context) ([]dto.PerfilResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PerfilResponse, len(users))
	for i, u := range users {
		resp[i] = mapPerfil(u)
	}
	return resp, nil
}

func (s *usuarioService) EliminarCliente(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if esNoEncontrado(err) {
			return apierror.NotFound("", "Cliente no encontrado")
		}
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *usuarioService) buscarPorCorreo(ctx context.Context, correo string) (*model.Usuario, error) {
	u, err := s.repo.FindByCorreo(ctx, normalizarCorreo(correo))
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "No existe una cuenta con ese correo")
		}
		return nil, err
	}
	return u, nil
}

func (s *usuarioService) buscarPorToken(ctx context.Context, token string) (*model.Usuario, error) {
	u, err := s.repo.FindByTokenRecup(ctx, token)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "El enlace de recuperación no es válido")
		}
		return nil, err
	}
	if u.TokenRecupExpira == nil || s.now().After(*u.TokenRecupExpira) {
		return nil, apierror.Validation("", "El enlace de recuperación expiró, solicita uno nuevo")
	}
	return u, nil
}

func (s *usuarioService) enviar(ctx context.Context, tipo, para, nombre, valor string) {
	enviarCorreo(ctx, s.encolador, tipo, para, nombre, valor)
}

func mapPerfil(u model.Usuario) dto.PerfilResponse {
	return dto.PerfilResponse{
		ID:         u.ID.String(),
		Nombre:     u.Nombre,
		Correo:     u.Correo,
		Telefono:   u.Telefono,
		Rol:        model.RolCliente,
		Verificado: u.Verificado,
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// enviarCorreo enqueues a notification. A failed enqueue is logged, never
// returned: the account change it follows is already committed.
func enviarCorreo(ctx context.Context, enc Encolador, tipo, para, nombre, valor string) {
	if enc == nil {
		return
	}
	err := enc.EncolarEmail(ctx, worker.EmailJobPayload{Tipo: tipo, Para: para, Nombre: nombre, Valor: valor})
	if err != nil {
		log.Error().Err(err).Str("tipo", tipo).Str("para", para).Msg("no se pudo encolar el correo")
	}
}

func emitirToken(cfg AuthConfig, id uuid.UUID, rol string, ahora time.Time) (string, error) {
	claims := middleware.JWTClaims{
		UserID: id.String(),
		Rol:    rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(ahora),
			ExpiresAt: jwt.NewNumericDate(ahora.Add(cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// generarOTP returns a uniformly random 6-digit code.
func generarOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizarCorreo(c string) string { return strings.ToLower(strings.TrimSpace(c)) }

func credencialesInvalidas() error {
	return apierror.Unauthorized(apierror.CodeInvalidCredentials, "Correo o contraseña incorrectos")
}
