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

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const lockDireccionesTTL = 5 * time.Second

// DireccionService maintains a user's address book: at most maxDirecciones
// rows, unique alias and house number, and at most one default.
type DireccionService interface {
	Agregar(ctx context.Context, usuarioID uuid.UUID, req dto.CrearDireccionRequest) (*dto.DireccionResponse, error)
	Listar(ctx context.Context, usuarioID uuid.UUID) ([]dto.DireccionResponse, error)
	Actualizar(ctx context.Context, id, usuarioID uuid.UUID, req dto.ActualizarDireccionRequest) (*dto.DireccionResponse, error)
	EstablecerPredeterminada(ctx context.Context, id, usuarioID uuid.UUID, predeterminada bool) (*dto.DireccionResponse, error)
	Eliminar(ctx context.Context, id, usuarioID uuid.UUID) error
}

type direccionService struct {
	repo           repository.DireccionRepository
	locker         Locker
	maxDirecciones int
}

// NewDireccionService wires the address book. locker may be nil, in which
// case only the transaction and the partial unique index guard the default.
func NewDireccionService(repo repository.DireccionRepository, locker Locker, maxDirecciones int) DireccionService {
	if maxDirecciones <= 0 {
		maxDirecciones = 5
	}
	return &direccionService{repo: repo, locker: locker, maxDirecciones: maxDirecciones}
}

// bloquear serialises the address mutations of one user.
func (s *direccionService) bloquear(ctx context.Context, usuarioID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, "direcciones:"+usuarioID.String(), lockDireccionesTTL)
	if err != nil {
		return nil, fmt.Errorf("bloquear direcciones: %w", err)
	}
	return unlock, nil
}

// ── Agregar ──────────────────────────────────────────────────────────────────
// Limit and uniqueness checks, clearing the previous default and the insert
// share one transaction under the per-user lock.

func (s *direccionService) Agregar(ctx context.Context, usuarioID uuid.UUID, req dto.CrearDireccionRequest) (*dto.DireccionResponse, error) {
	unlock, err := s.bloquear(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dir := &model.Direccion{
		UsuarioID:       usuarioID,
		Alias:           strings.TrimSpace(req.Alias),
		Parroquia:       strings.TrimSpace(req.Parroquia),
		CallePrincipal:  strings.TrimSpace(req.CallePrincipal),
		CalleSecundaria: req.CalleSecundaria,
		NumeroCasa:      strings.TrimSpace(req.NumeroCasa),
		Referencia:      req.Referencia,
		IsDefault:       req.IsDefault,
	}
	if dir.CallePrincipal == "" || dir.NumeroCasa == "" {
		return nil, apierror.Validation("", "La calle principal y el número de casa son obligatorios")
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		n, err := s.repo.CountByUsuario(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		if n >= int64(s.maxDirecciones) {
			return apierror.Conflict(apierror.CodeTooManyAddresses,
				fmt.Sprintf("No puede registrar más de %d direcciones", s.maxDirecciones))
		}
		if err := s.verificarUnicidad(ctx, tx, usuarioID, dir, uuid.Nil); err != nil {
			return err
		}
		if dir.IsDefault {
			if err := s.repo.ClearDefault(ctx, tx, usuarioID); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, tx, dir)
	})
	if err != nil {
		return nil, err
	}
	resp := mapDireccion(*dir)
	return &resp, nil
}

func (s *direccionService) Listar(ctx context.Context, usuarioID uuid.UUID) ([]dto.DireccionResponse, error) {
	dirs, err := s.repo.ListByUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.DireccionResponse, len(dirs))
	for i, d := range dirs {
		resp[i] = mapDireccion(d)
	}
	return resp, nil
}

func (s *direccionService) Actualizar(ctx context.Context, id, usuarioID uuid.UUID, req dto.ActualizarDireccionRequest) (*dto.DireccionResponse, error) {
	unlock, err := s.bloquear(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dir, err := s.buscarPropia(ctx, id, usuarioID)
	if err != nil {
		return nil, err
	}
	if req.Alias != nil {
		dir.Alias = strings.TrimSpace(*req.Alias)
	}
	if req.Parroquia != nil {
		dir.Parroquia = strings.TrimSpace(*req.Parroquia)
	}
	if req.CallePrincipal != nil {
		dir.CallePrincipal = strings.TrimSpace(*req.CallePrincipal)
	}
	if req.CalleSecundaria != nil {
		dir.CalleSecundaria = req.CalleSecundaria
	}
	if req.NumeroCasa != nil {
		dir.NumeroCasa = strings.TrimSpace(*req.NumeroCasa)
	}
	if req.Referencia != nil {
		dir.Referencia = req.Referencia
	}
	if dir.CallePrincipal == "" || dir.NumeroCasa == "" {
		return nil, apierror.Validation("", "La calle principal y el número de casa son obligatorios")
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.verificarUnicidad(ctx, tx, usuarioID, dir, dir.ID); err != nil {
			return err
		}
		return s.repo.Update(ctx, tx, dir)
	})
	if err != nil {
		return nil, err
	}
	resp := mapDireccion(*dir)
	return &resp, nil
}

// EstablecerPredeterminada with true clears every sibling before setting the
// flag; with false it only unsets this address.
func (s *direccionService) EstablecerPredeterminada(ctx context.Context, id, usuarioID uuid.UUID, predeterminada bool) (*dto.DireccionResponse, error) {
	unlock, err := s.bloquear(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dir, err := s.buscarPropia(ctx, id, usuarioID)
	if err != nil {
		return nil, err
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if predeterminada {
			if err := s.repo.ClearDefault(ctx, tx, usuarioID); err != nil {
				return err
			}
		}
		dir.IsDefault = predeterminada
		return s.repo.Update(ctx, tx, dir)
	})
	if err != nil {
		return nil, err
	}
	resp := mapDireccion(*dir)
	return &resp, nil
}

func (s *direccionService) Eliminar(ctx context.Context, id, usuarioID uuid.UUID) error {
	unlock, err := s.bloquear(ctx, usuarioID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.buscarPropia(ctx, id, usuarioID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *direccionService) buscarPropia(ctx context.Context, id, usuarioID uuid.UUID) (*model.Direccion, error) {
	dir, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Dirección no encontrada")
		}
		return nil, err
	}
	if dir.UsuarioID != usuarioID {
		return nil, apierror.Forbidden("", "La dirección pertenece a otro usuario")
	}
	return dir, nil
}

func (s *direccionService) verificarUnicidad(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, dir *model.Direccion, exceptID uuid.UUID) error {
	existe, err := s.repo.ExistsNumeroCasa(ctx, tx, usuarioID, dir.NumeroCasa, exceptID)
	if err != nil {
		return err
	}
	if existe {
		return apierror.Conflict(apierror.CodeDuplicateHouseNo,
			fmt.Sprintf("Ya tiene una dirección con el número de casa %q", dir.NumeroCasa))
	}
	existe, err = s.repo.ExistsAlias(ctx, tx, usuarioID, dir.Alias, exceptID)
	if err != nil {
		return err
	}
	if existe {
		return apierror.Conflict(apierror.CodeDuplicateAlias,
			fmt.Sprintf("Ya tiene una dirección con el alias %q", dir.Alias))
	}
	return nil
}

func mapDireccion(d model.Direccion) dto.DireccionResponse {
	return dto.DireccionResponse{
		ID:              d.ID.String(),
		Alias:           d.Alias,
		Parroquia:       d.Parroquia,
		CallePrincipal:  d.CallePrincipal,
		CalleSecundaria: d.CalleSecundaria,
		NumeroCasa:      d.NumeroCasa,
		Referencia:      d.Referencia,
		IsDefault:       d.IsDefault,
	}
}
