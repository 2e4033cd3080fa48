package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/model"
	"cuentame/internal/repository"
	"cuentame/internal/worker"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AdminService interface {
	Registro(ctx context.Context, req dto.RegistroRequest) (*dto.MensajeResponse, error)
	Confirmar(ctx context.Context, token string) (*dto.MensajeResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Perfil(ctx context.Context, id uuid.UUID) (*dto.PerfilResponse, error)
}

type adminService struct {
	repo      repository.AdministradorRepository
	encolador Encolador
	cfg       AuthConfig
	// baseURL is where the confirmation endpoint is served.
	baseURL string
	now     func() time.Time
}

func NewAdminService(repo repository.AdministradorRepository, encolador Encolador, cfg AuthConfig, baseURL string, now func() time.Time) AdminService {
	if now == nil {
		now = time.Now
	}
	return &adminService{repo: repo, encolador: encolador, cfg: cfg, baseURL: baseURL, now: now}
}

func (s *adminService) Registro(ctx context.Context, req dto.RegistroRequest) (*dto.MensajeResponse, error) {
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
	token := uuid.NewString()
	a := &model.Administrador{
		Nombre:            strings.TrimSpace(req.Nombre),
		Correo:            correo,
		PasswordHash:      string(hash),
		Telefono:          req.Telefono,
		TokenConfirmacion: &token,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("crear administrador: %w", err)
	}
	link := strings.TrimRight(s.baseURL, "/") + "/v1/admin/confirmar/" + token
	enviarCorreo(ctx, s.encolador, worker.EmailConfirmacion, a.Correo, a.Nombre, link)
	return &dto.MensajeResponse{Mensaje: "Revisa tu correo para confirmar la cuenta"}, nil
}

func (s *adminService) Confirmar(ctx context.Context, token string) (*dto.MensajeResponse, error) {
	a, err := s.repo.FindByTokenConfirmacion(ctx, token)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "El enlace de confirmación no es válido")
		}
		return nil, err
	}
	a.EmailConfirmado = true
	a.TokenConfirmacion = nil
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return &dto.MensajeResponse{Mensaje: "Cuenta confirmada, ya puedes iniciar sesión"}, nil
}

func (s *adminService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	a, err := s.repo.FindByCorreo(ctx, normalizarCorreo(req.Correo))
	if err != nil {
		if esNoEncontrado(err) {
			return nil, credencialesInvalidas()
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, credencialesInvalidas()
	}
	if !a.EmailConfirmado {
		return nil, apierror.Forbidden(apierror.CodeAccountNotConfirmed, "Debes confirmar tu correo antes de iniciar sesión")
	}
	token, err := emitirToken(s.cfg, a.ID, model.RolAdmin, s.now())
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.cfg.TokenTTL.Seconds()),
		Perfil:      mapAdmin(*a),
	}, nil
}

func (s *adminService) Perfil(ctx context.Context, id uuid.UUID) (*dto.PerfilResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Administrador no encontrado")
		}
		return nil, err
	}
	resp := mapAdmin(*a)
	return &resp, nil
}

func mapAdmin(a model.Administrador) dto.PerfilResponse {
	return dto.PerfilResponse{
		ID:         a.ID.String(),
		Nombre:     a.Nombre,
		Correo:     a.Correo,
		Telefono:   a.Telefono,
		Rol:        model.RolAdmin,
		Verificado: a.EmailConfirmado,
	}
}
