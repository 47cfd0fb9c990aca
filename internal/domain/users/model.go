package users

import (
	"time"

	"adopt-meow/internal/ports/auth"
)

// User representa una cuenta de la app (dueño o adoptante).
// PasswordHash nunca sale por la API; las responses usan toUserResponse.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Image        string // URI opaca
	UserType     auth.UserType

	CreatedAt time.Time
	UpdatedAt time.Time
}
