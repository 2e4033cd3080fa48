package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"cuentame/internal/apierror"
	"cuentame/internal/middleware"
	"cuentame/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0 work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			// Float64 goes through big.Rat; out-of-range exponents are left
			// for the service range check.
			if e := v.Exponent(); e > 20 || e < -20 {
				if v.IsNegative() {
					return math.Inf(-1)
				}
				return math.Inf(1)
			}
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError writes the status and envelope matching err. Anything that is
// not a business error is attached to the context so ErrorHandler logs it and
// reports it to sentry; the client only sees a generic message.
func respondError(c *gin.Context, err error) {
	if e, ok := apierror.As(err); ok && e.Kind != apierror.KindUnexpected {
		c.JSON(apierror.HTTPStatus(err), &apierror.APIError{Detail: e.Msg, Code: e.Code})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// solicitante reads the caller from the JWT claims set by JWTAuth.
func solicitante(c *gin.Context) (service.Solicitante, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticación requerida"))
		return service.Solicitante{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token inválido o expirado"))
		return service.Solicitante{}, false
	}
	return service.Solicitante{ID: id, Rol: claims.Rol}, true
}

// ── Subida de imágenes ───────────────────────────────────────────────────────

const maxImagenBytes = 5 << 20

var extensionesImagen = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Uploads stores multipart images in a temp directory until the image worker
// pushes them to the image store.
type Uploads struct{ Dir string }

// guardar saves the "imagen" form file and returns its path. It writes the
// error response itself and returns false on failure.
func (u Uploads) guardar(c *gin.Context) (string, bool) {
	fh, err := c.FormFile("imagen")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el archivo 'imagen'"))
		return "", false
	}
	if fh.Size > maxImagenBytes {
		c.JSON(http.StatusBadRequest, apierror.New("La imagen supera los 5 MB"))
		return "", false
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !extensionesImagen[ext] {
		c.JSON(http.StatusBadRequest, apierror.New("Formato de imagen no soportado"))
		return "", false
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		respondError(c, fmt.Errorf("crear directorio de subidas: %w", err))
		return "", false
	}
	ruta := filepath.Join(u.Dir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fh, ruta); err != nil {
		respondError(c, fmt.Errorf("guardar imagen: %w", err))
		return "", false
	}
	return ruta, true
}

// descartar removes an upload whose job was never queued.
func descartar(ruta string) {
	if err := os.Remove(ruta); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("ruta", ruta).Msg("upload temp file not removed")
	}
}

// aceptado answers an image upload whose association runs in the background.
func aceptado(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"mensaje": "Imagen recibida, se asociará en breve"})
}
