package auth

// UserType distingue los dos roles de la app.
// @Enum owner, adopter
type UserType string

const (
	UserTypeOwner   UserType = "owner"
	UserTypeAdopter UserType = "adopter"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID   string
	Email    string
	UserType UserType
}
