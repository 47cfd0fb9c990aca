package cats

import "context"

// Repository es el adoption record store. Update compara Cat.Version
// contra la versión almacenada: si perdió la carrera devuelve ErrConflict
// y no escribe nada. Delete sobre un id inexistente no es error.
type Repository interface {
	Create(ctx context.Context, c Cat) error
	Update(ctx context.Context, c Cat) error
	GetByID(ctx context.Context, id string) (Cat, error)
	List(ctx context.Context) ([]Cat, error)
	Delete(ctx context.Context, id string) error
}
