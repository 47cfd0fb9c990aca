package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"adopt-meow/internal/ports/auth"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
)

// Mensaje exacto que la app mapea al campo email.
const msgEmailTaken = "El correo electrónico ya está en uso"

// FieldError es un error de validación por campo, tal como lo devuelve
// el backend y lo muestra la UI.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation: " + strings.Join(parts, "; ")
}

type Service struct {
	repo   Repository
	tokens *TokenService
	now    func() time.Time
}

func NewService(repo Repository, tokens *TokenService) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Image    string
	UserType string
}

// Register crea la cuenta. No inicia sesión: el cliente hace login aparte.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	userType := auth.UserType(strings.TrimSpace(in.UserType))

	var verrs ValidationErrors
	if username == "" {
		verrs = append(verrs, FieldError{Field: "username", Message: "El nombre de usuario es obligatorio"})
	}
	if email == "" || !strings.Contains(email, "@") {
		verrs = append(verrs, FieldError{Field: "email", Message: "El correo electrónico no es válido"})
	}
	if len(in.Password) < 6 {
		verrs = append(verrs, FieldError{Field: "password", Message: "La contraseña debe tener al menos 6 caracteres"})
	}
	if userType != auth.UserTypeOwner && userType != auth.UserTypeAdopter {
		verrs = append(verrs, FieldError{Field: "userType", Message: "El tipo de usuario debe ser owner o adopter"})
	}
	if len(verrs) > 0 {
		return User{}, verrs
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ValidationErrors{{Field: "email", Message: msgEmailTaken}}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Image:        strings.TrimSpace(in.Image),
		UserType:     userType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login verifica credenciales y emite el token que viaja en el header
// Authorization de la respuesta.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, "", ErrBadCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, "", ErrBadCredentials
	}

	ok, err := verifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return User{}, "", ErrBadCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

// Verify valida un token persistido (restauración de sesión).
func (s *Service) Verify(ctx context.Context, token string) (auth.Claims, error) {
	return s.tokens.Verify(ctx, token)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}
