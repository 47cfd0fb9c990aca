package session

import "context"

// Session es la unidad atómica que se persiste en el dispositivo:
// exactamente tres claves, que se escriben y se limpian juntas.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
}

// Store persiste la sesión entre reinicios del proceso. Acceso local,
// un solo escritor; no hay refresh de token: si la verificación falla
// se descarta y se vuelve a login.
type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context) (Session, bool, error)
	Clear(ctx context.Context) error
}
