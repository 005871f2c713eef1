package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"account-api/internal/apperror"
	"account-api/internal/domain"
	"account-api/internal/repository"
)

// UserService coordina las operaciones de cuenta: registro, login,
// logout y actualizaciones de perfil.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
	tokens *TokenService
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, tokens *TokenService) *UserService {
	return &UserService{
		logger: logger,
		users:  users,
		tokens: tokens,
	}
}

var (
	ErrUserExists    = apperror.Conflict("This user is already exist")
	ErrUnableToLogin = apperror.Unauthorized("Unable to login")
	ErrNotAllowed    = apperror.Forbidden("Not allowed")
	ErrUserNotFound  = apperror.NotFound("User not found")
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type UpdateInput struct {
	Password  *string
	FirstName *string
	LastName  *string
}

type AdminUpdateInput struct {
	FirstName string
	LastName  string
}

// Register crea una cuenta nueva con rol user y contraseña hasheada.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	email := normalizeEmail(input.Email)

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return domain.User{}, ErrUserExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Roles:     []string{domain.RoleUser},
		Tokens:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Una carrera entre el chequeo y el insert la resuelve el índice
	// único de email; el normalizador traduce ese fallo.
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifica credenciales, emite un token de sesión y lo agrega a
// la lista de tokens activos del usuario. Email desconocido y
// contraseña incorrecta responden de forma indistinguible.
func (s *UserService) Login(ctx context.Context, email, password string, remember bool) (domain.User, string, int64, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, "", 0, ErrUnableToLogin
		}
		return domain.User{}, "", 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, "", 0, ErrUnableToLogin
	}

	token, expiresIn, err := s.tokens.Issue(user.ID, remember)
	if err != nil {
		return domain.User{}, "", 0, err
	}

	if err := s.users.AppendToken(ctx, user.ID, token); err != nil {
		return domain.User{}, "", 0, err
	}
	user.Tokens = append(user.Tokens, token)

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return user, token, expiresIn, nil
}

// Logout quita el token exacto de esta sesión de la lista de tokens
// activos, revocándolo antes de su expiración.
func (s *UserService) Logout(ctx context.Context, user domain.User, token string) error {
	return s.users.RemoveToken(ctx, user.ID, token)
}

// UpdateProfile aplica una actualización parcial sobre el propio
// usuario. El email no se puede cambiar por esta vía.
func (s *UserService) UpdateProfile(ctx context.Context, user domain.User, input UpdateInput) (domain.User, error) {
	if input.Password == nil && input.FirstName == nil && input.LastName == nil {
		return domain.User{}, apperror.NewValidation("Invalid input data: ", apperror.Fields{
			"all": "At least one field is required",
		})
	}

	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, err
		}
		user.Password = string(hash)
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}

	return s.users.Update(ctx, user)
}

// UpdateByAdmin actualiza a otro usuario, solo para cuentas con rol
// admin.
func (s *UserService) UpdateByAdmin(ctx context.Context, actor domain.User, targetID string, input AdminUpdateInput) (domain.User, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		return domain.User{}, ErrNotAllowed
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	target.FirstName = strings.TrimSpace(input.FirstName)
	target.LastName = strings.TrimSpace(input.LastName)

	return s.users.Update(ctx, target)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
