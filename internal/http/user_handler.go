package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-api/internal/apperror"
	"account-api/internal/service"
)

// UserHandler mantiene dependencias para los endpoints de cuentas.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
}

// NewUserHandler crea una instancia de UserHandler con sus dependencias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
	}
}

// Register maneja POST /api/users/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=8,max=50"`
		FirstName string `json:"firstName" binding:"required,min=2,max=50"`
		LastName  string `json:"lastName" binding:"required,min=2,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.Error(err)
		c.Abort()
		return
	}

	user, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "data": user})
}

// Login maneja POST /api/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8,max=50"`
		Remember bool   `json:"remember"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.Error(err)
		c.Abort()
		return
	}

	user, token, expiresIn, err := h.userServ.Login(c.Request.Context(), req.Email, req.Password, req.Remember)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token, "expiresIn": expiresIn})
}

// Logout maneja GET /api/users/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	// Defensivo: detrás del middleware de auth siempre hay header.
	if c.GetHeader("Authorization") == "" {
		c.Error(apperror.Unauthorized("Not authorized"))
		c.Abort()
		return
	}

	user, ok := CurrentUser(c)
	token, okToken := BearerToken(c)
	if !ok || !okToken {
		c.Error(apperror.Unauthorized("Not authorized"))
		c.Abort()
		return
	}

	if err := h.userServ.Logout(c.Request.Context(), user, token); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Me maneja GET /api/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.Error(apperror.Unauthorized("Not authorized"))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe maneja PATCH /api/users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.Error(apperror.Unauthorized("Not authorized"))
		c.Abort()
		return
	}

	var req struct {
		Password  *string `json:"password" binding:"omitempty,min=8,max=50"`
		FirstName *string `json:"firstName" binding:"omitempty,min=2,max=50"`
		LastName  *string `json:"lastName" binding:"omitempty,min=2,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update request", zap.Error(err))
		c.Error(err)
		c.Abort()
		return
	}

	updated, err := h.userServ.UpdateProfile(c.Request.Context(), user, service.UpdateInput{
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "user": updated})
}

// UpdateByAdmin maneja PATCH /api/users/:id.
func (h *UserHandler) UpdateByAdmin(c *gin.Context) {
	actor, ok := CurrentUser(c)
	if !ok {
		c.Error(apperror.Unauthorized("Not authorized"))
		c.Abort()
		return
	}

	var req struct {
		FirstName string `json:"firstName" binding:"required,min=2,max=50"`
		LastName  string `json:"lastName" binding:"required,min=2,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid admin update request", zap.Error(err))
		c.Error(err)
		c.Abort()
		return
	}

	updated, err := h.userServ.UpdateByAdmin(c.Request.Context(), actor, c.Param("id"), service.AdminUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": updated})
}
