package service

import (
	"context"
	"fmt"
	"strings"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/model"
	"cuentame/internal/repository"

	"github.com/google/uuid"
)

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	SubirImagen(ctx context.Context, id uuid.UUID, ruta string) error
}

type productoService struct {
	repo      repository.ProductoRepository
	encolador Encolador
}

func NewProductoService(repo repository.ProductoRepository, encolador Encolador) ProductoService {
	return &productoService{repo: repo, encolador: encolador}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if req.Stock < 0 {
		return nil, apierror.Validation("", "El stock no puede ser negativo")
	}
	if err := validarMonto(req.Precio, "El precio"); err != nil {
		return nil, err
	}
	if err := s.verificarNombre(ctx, nombre, uuid.Nil); err != nil {
		return nil, err
	}
	p := &model.Producto{
		Nombre:      nombre,
		Descripcion: req.Descripcion,
		Precio:      req.Precio,
		Stock:       req.Stock,
		Categoria:   req.Categoria,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	resp := mapProducto(*p)
	return &resp, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapProducto(*p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, len(productos))
	for i, p := range productos {
		data[i] = mapProducto(p)
	}
	pages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		pages++
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: pages,
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if err := s.verificarNombre(ctx, nombre, p.ID); err != nil {
			return nil, err
		}
		p.Nombre = nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = *req.Descripcion
	}
	if req.Precio != nil {
		if err := validarMonto(*req.Precio, "El precio"); err != nil {
			return nil, err
		}
		p.Precio = *req.Precio
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apierror.Validation("", "El stock no puede ser negativo")
		}
		p.Stock = *req.Stock
	}
	if req.Categoria != nil {
		p.Categoria = *req.Categoria
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("actualizar producto: %w", err)
	}
	resp := mapProducto(*p)
	return &resp, nil
}

// Eliminar refuses products still referenced by an order line.
func (s *productoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.buscar(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountOrdenLineas(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierror.Conflict("", "El producto forma parte de órdenes registradas y no puede eliminarse")
	}
	return s.repo.Delete(ctx, id)
}

func (s *productoService) SubirImagen(ctx context.Context, id uuid.UUID, ruta string) error {
	if _, err := s.buscar(ctx, id); err != nil {
		return err
	}
	return encolarImagen(ctx, s.encolador, repository.EntidadProducto, "productos", id, ruta)
}

func (s *productoService) buscar(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Producto no encontrado")
		}
		return nil, err
	}
	return p, nil
}

func (s *productoService) verificarNombre(ctx context.Context, nombre string, exceptID uuid.UUID) error {
	existente, err := s.repo.FindByNombre(ctx, nombre)
	if err != nil {
		if esNoEncontrado(err) {
			return nil
		}
		return err
	}
	if existente.ID != exceptID {
		return apierror.Conflict(apierror.CodeDuplicateName, fmt.Sprintf("Ya existe un producto llamado %q", nombre))
	}
	return nil
}

func mapProducto(p model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:          p.ID.String(),
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio,
		Stock:       p.Stock,
		Imagen:      p.Imagen,
		Categoria:   p.Categoria,
	}
}
