package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/model"
	"cuentame/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const maxDescripcionPlantilla = 100

// ── Cajas predefinidas ───────────────────────────────────────────────────────

type CajaPredefinidaService interface {
	Crear(ctx context.Context, req dto.CrearCajaPredefinidaRequest) (*dto.CajaPredefinidaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CajaPredefinidaResponse, error)
	Listar(ctx context.Context) ([]dto.CajaPredefinidaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCajaPredefinidaRequest) (*dto.CajaPredefinidaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	SubirImagen(ctx context.Context, id uuid.UUID, ruta string) error
}

type cajaPredefinidaService struct {
	repo      repository.CajaPredefinidaRepository
	encolador Encolador
}

func NewCajaPredefinidaService(repo repository.CajaPredefinidaRepository, encolador Encolador) CajaPredefinidaService {
	return &cajaPredefinidaService{repo: repo, encolador: encolador}
}

func (s *cajaPredefinidaService) Crear(ctx context.Context, req dto.CrearCajaPredefinidaRequest) (*dto.CajaPredefinidaResponse, error) {
	if req.Stock < 0 {
		return nil, apierror.Validation("", "El stock no puede ser negativo")
	}
	if err := validarMonto(req.Precio, "El precio"); err != nil {
		return nil, err
	}
	nombre := strings.TrimSpace(req.Nombre)
	if err := s.verificarNombre(ctx, nombre, uuid.Nil); err != nil {
		return nil, err
	}
	c := &model.CajaPredefinida{
		Nombre:      nombre,
		Descripcion: req.Descripcion,
		Contenido:   req.Contenido,
		Stock:       req.Stock,
		Precio:      req.Precio,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("crear caja predefinida: %w", err)
	}
	resp := mapCajaPredefinida(*c)
	return &resp, nil
}

func (s *cajaPredefinidaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CajaPredefinidaResponse, error) {
	c, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapCajaPredefinida(*c)
	return &resp, nil
}

func (s *cajaPredefinidaService) Listar(ctx context.Context) ([]dto.CajaPredefinidaResponse, error) {
	cajas, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CajaPredefinidaResponse, len(cajas))
	for i, c := range cajas {
		resp[i] = mapCajaPredefinida(c)
	}
	return resp, nil
}

func (s *cajaPredefinidaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCajaPredefinidaRequest) (*dto.CajaPredefinidaResponse, error) {
	c, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if err := s.verificarNombre(ctx, nombre, c.ID); err != nil {
			return nil, err
		}
		c.Nombre = nombre
	}
	if req.Descripcion != nil {
		c.Descripcion = *req.Descripcion
	}
	if req.Contenido != nil {
		c.Contenido = *req.Contenido
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apierror.Validation("", "El stock no puede ser negativo")
		}
		c.Stock = *req.Stock
	}
	if req.Precio != nil {
		if err := validarMonto(*req.Precio, "El precio"); err != nil {
			return nil, err
		}
		c.Precio = *req.Precio
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("actualizar caja predefinida: %w", err)
	}
	resp := mapCajaPredefinida(*c)
	return &resp, nil
}

func (s *cajaPredefinidaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.buscar(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountOrdenLineas(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierror.Conflict("", "La caja forma parte de órdenes registradas y no puede eliminarse")
	}
	return s.repo.Delete(ctx, id)
}

func (s *cajaPredefinidaService) SubirImagen(ctx context.Context, id uuid.UUID, ruta string) error {
	if _, err := s.buscar(ctx, id); err != nil {
		return err
	}
	return encolarImagen(ctx, s.encolador, repository.EntidadCajaPredefinida, "cajas_predefinidas", id, ruta)
}

func (s *cajaPredefinidaService) buscar(ctx context.Context, id uuid.UUID) (*model.CajaPredefinida, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Caja predefinida no encontrada")
		}
		return nil, err
	}
	return c, nil
}

func (s *cajaPredefinidaService) verificarNombre(ctx context.Context, nombre string, exceptID uuid.UUID) error {
	existente, err := s.repo.FindByNombre(ctx, nombre)
	if err != nil {
		if esNoEncontrado(err) {
			return nil
		}
		return err
	}
	if existente.ID != exceptID {
		return apierror.Conflict(apierror.CodeDuplicateName, fmt.Sprintf("Ya existe una caja predefinida llamada %q", nombre))
	}
	return nil
}

func mapCajaPredefinida(c model.CajaPredefinida) dto.CajaPredefinidaResponse {
	return dto.CajaPredefinidaResponse{
		ID:          c.ID.String(),
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		Contenido:   c.Contenido,
		Stock:       c.Stock,
		Precio:      c.Precio,
		Imagen:      c.Imagen,
	}
}

// ── Cajas personalizadas (plantillas) ────────────────────────────────────────

type CajaPersonalizadaService interface {
	Crear(ctx context.Context, req dto.CrearCajaPersonalizadaRequest) (*dto.CajaPersonalizadaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CajaPersonalizadaResponse, error)
	Listar(ctx context.Context) ([]dto.CajaPersonalizadaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCajaPersonalizadaRequest) (*dto.CajaPersonalizadaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	SubirImagen(ctx context.Context, id uuid.UUID, ruta string) error
}

type cajaPersonalizadaService struct {
	repo         repository.CajaPersonalizadaRepository
	productoRepo repository.ProductoRepository
	encolador    Encolador
}

func NewCajaPersonalizadaService(
	repo repository.CajaPersonalizadaRepository,
	productoRepo repository.ProductoRepository,
	encolador Encolador,
) CajaPersonalizadaService {
	return &cajaPersonalizadaService{repo: repo, productoRepo: productoRepo, encolador: encolador}
}

func (s *cajaPersonalizadaService) Crear(ctx context.Context, req dto.CrearCajaPersonalizadaRequest) (*dto.CajaPersonalizadaResponse, error) {
	if err := validarPlantilla(req.Descripcion, req.PrecioBase, req.Dimensiones); err != nil {
		return nil, err
	}
	extras, err := resolverProductos(ctx, s.productoRepo, req.Extras)
	if err != nil {
		return nil, err
	}
	c := &model.CajaPersonalizada{
		Nombre:      strings.TrimSpace(req.Nombre),
		Descripcion: req.Descripcion,
		PrecioBase:  req.PrecioBase,
		Dimensiones: dimensionesModelo(req.Dimensiones),
		Color:       req.Color,
		Extras:      extras,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("crear caja personalizada: %w", err)
	}
	resp := mapCajaPersonalizada(*c)
	return &resp, nil
}

func (s *cajaPersonalizadaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CajaPersonalizadaResponse, error) {
	c, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapCajaPersonalizada(*c)
	return &resp, nil
}

func (s *cajaPersonalizadaService) Listar(ctx context.Context) ([]dto.CajaPersonalizadaResponse, error) {
	cajas, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CajaPersonalizadaResponse, len(cajas))
	for i, c := range cajas {
		resp[i] = mapCajaPersonalizada(c)
	}
	return resp, nil
}

func (s *cajaPersonalizadaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCajaPersonalizadaRequest) (*dto.CajaPersonalizadaResponse, error) {
	c, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != nil {
		c.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Descripcion != nil {
		c.Descripcion = *req.Descripcion
	}
	if req.PrecioBase != nil {
		c.PrecioBase = *req.PrecioBase
	}
	dims := dimensionesDTO(c.Dimensiones)
	if req.Dimensiones != nil {
		dims = *req.Dimensiones
	}
	if req.Color != nil {
		c.Color = *req.Color
	}
	if err := validarPlantilla(c.Descripcion, c.PrecioBase, dims); err != nil {
		return nil, err
	}
	c.Dimensiones = dimensionesModelo(dims)
	if req.Extras != nil {
		extras, err := resolverProductos(ctx, s.productoRepo, *req.Extras)
		if err != nil {
			return nil, err
		}
		c.Extras = extras
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("actualizar caja personalizada: %w", err)
	}
	resp := mapCajaPersonalizada(*c)
	return &resp, nil
}

func (s *cajaPersonalizadaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.buscar(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountOrdenLineas(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierror.Conflict("", "La caja forma parte de órdenes registradas y no puede eliminarse")
	}
	return s.repo.Delete(ctx, id)
}

func (s *cajaPersonalizadaService) SubirImagen(ctx context.Context, id uuid.UUID, ruta string) error {
	if _, err := s.buscar(ctx, id); err != nil {
		return err
	}
	return encolarImagen(ctx, s.encolador, repository.EntidadCajaPersonalizada, "cajas_personalizadas", id, ruta)
}

func (s *cajaPersonalizadaService) buscar(ctx context.Context, id uuid.UUID) (*model.CajaPersonalizada, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Caja personalizada no encontrada")
		}
		return nil, err
	}
	return c, nil
}

func validarPlantilla(descripcion string, precioBase decimal.Decimal, dims []dto.DimensionPrecioDTO) error {
	if utf8.RuneCountInString(descripcion) > maxDescripcionPlantilla {
		return apierror.Validation("", fmt.Sprintf("La descripción admite como máximo %d caracteres", maxDescripcionPlantilla))
	}
	if err := validarMonto(precioBase, "El precio base"); err != nil {
		return err
	}
	for _, d := range dims {
		if strings.TrimSpace(d.Dimension) == "" || !montoValido(d.Precio) {
			return apierror.Validation(apierror.CodeInvalidDimension,
				fmt.Sprintf("Dimensión inválida: %q", d.Dimension))
		}
	}
	return nil
}

func dimensionesModelo(ds []dto.DimensionPrecioDTO) datatypes.JSONSlice[model.DimensionPrecio] {
	out := make(datatypes.JSONSlice[model.DimensionPrecio], len(ds))
	for i, d := range ds {
		out[i] = model.DimensionPrecio{Dimension: strings.TrimSpace(d.Dimension), Precio: d.Precio}
	}
	return out
}

func dimensionesDTO(ds datatypes.JSONSlice[model.DimensionPrecio]) []dto.DimensionPrecioDTO {
	out := make([]dto.DimensionPrecioDTO, len(ds))
	for i, d := range ds {
		out[i] = dto.DimensionPrecioDTO{Dimension: d.Dimension, Precio: d.Precio}
	}
	return out
}

func mapCajaPersonalizada(c model.CajaPersonalizada) dto.CajaPersonalizadaResponse {
	return dto.CajaPersonalizadaResponse{
		ID:          c.ID.String(),
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		PrecioBase:  c.PrecioBase,
		Dimensiones: dimensionesDTO(c.Dimensiones),
		Color:       c.Color,
		Imagen:      c.Imagen,
		Extras:      resumenProductos(c.Extras),
	}
}
