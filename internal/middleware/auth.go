package middleware

import (
	"context"
	"net/http"
	"strings"

	"cuentame/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token.
// The registered ID (jti) is what logout revokes.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Rol    string `json:"rol"`
	jwt.RegisteredClaims
}

// TokenDenylist reports whether a token id was revoked by logout.
type TokenDenylist interface {
	Revocado(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the Bearer token on every protected route.
// denylist may be nil.
func JWTAuth(secret string, denylist TokenDenylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticación requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid || claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token inválido o expirado"))
			return
		}

		if denylist != nil && claims.ID != "" {
			revocado, err := denylist.Revocado(c.Request.Context(), claims.ID)
			if err != nil {
				// fail open: redis outage must not lock every user out
				log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("denylist lookup failed")
			} else if revocado {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Sesión cerrada, inicie sesión nuevamente"))
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
