package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"account-api/internal/apperror"
	"account-api/internal/domain"
	"account-api/internal/repository"
	"account-api/internal/service"
)

const (
	authUserKey  = "auth_user"
	authTokenKey = "auth_token"
)

// AuthMiddleware resuelve el token bearer a un usuario autenticado.
// Además de verificar la firma exige que el token crudo siga en la
// lista de tokens activos del usuario, lo que permite logout forzado.
func AuthMiddleware(tokens *service.TokenService, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			abortUnauthorized(c)
			return
		}

		raw := strings.TrimSpace(header[len("bearer "):])
		if raw == "" {
			abortUnauthorized(c)
			return
		}

		userID, err := tokens.Verify(raw)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		user, err := users.GetByIDAndToken(c.Request.Context(), userID, raw)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				abortUnauthorized(c)
				return
			}
			c.Error(err)
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Set(authTokenKey, raw)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.Error(apperror.Unauthorized("Not authorized"))
	c.Abort()
}

// CurrentUser obtiene el usuario autenticado desde el contexto.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

// BearerToken obtiene el token crudo de la solicitud autenticada.
func BearerToken(c *gin.Context) (string, bool) {
	val, ok := c.Get(authTokenKey)
	if !ok {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}
