package cats

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"adopt-meow/internal/platform/logger"
	"adopt-meow/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")

	// ErrConflict: la escritura perdió la carrera contra otro cliente
	// incluso después del reintento.
	ErrConflict = errors.New("conflicting update")
)

// errNoChange corta un mutate sin escribir (operaciones idempotentes).
var errNoChange = errors.New("no change")

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name        string
	Sex         string
	Weight      float64
	Vaccination string
	SpecialCare string
	Description string
	Castrated   string
	Image       string
	Location    Location
}

// Create registra un reporte nuevo. Solo role owner: la UI gatea esto por
// navegación, pero acá lo exige el engine.
func (s *Service) Create(ctx context.Context, actor auth.Claims, in CreateInput) (Cat, error) {
	if err := requireActor(actor); err != nil {
		return Cat{}, err
	}
	if actor.UserType != auth.UserTypeOwner {
		return Cat{}, ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Cat{}, ErrInvalidInput
	}

	sex := Sex(strings.TrimSpace(in.Sex))
	if sex != SexMale && sex != SexFemale {
		return Cat{}, ErrInvalidInput
	}

	castrated := YesNo(strings.TrimSpace(in.Castrated))
	if castrated == "" {
		castrated = No
	}
	if castrated != Yes && castrated != No {
		return Cat{}, ErrInvalidInput
	}

	now := s.now()
	c := Cat{
		ID:          uuid.NewString(),
		OwnerID:     actor.UserID,
		Name:        name,
		Sex:         sex,
		Weight:      in.Weight,
		Vaccination: strings.TrimSpace(in.Vaccination),
		SpecialCare: strings.TrimSpace(in.SpecialCare),
		Description: strings.TrimSpace(in.Description),
		Castrated:   castrated,
		Image:       strings.TrimSpace(in.Image),
		Location:    in.Location,
		Adopted:     false,
		AdopterIDs:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Cat{}, err
	}
	return c, nil
}

// List devuelve todos los reportes. Los listados son best-effort: ante un
// error del store se loguea y se devuelve lista vacía, nunca error.
func (s *Service) List(ctx context.Context, actor auth.Claims) []Cat {
	if requireActor(actor) != nil {
		return []Cat{}
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Warn("cat listing failed", map[string]any{"error": err.Error()})
		}
		return []Cat{}
	}
	if items == nil {
		items = []Cat{}
	}
	return items
}

func (s *Service) GetByID(ctx context.Context, actor auth.Claims, id string) (Cat, error) {
	if err := requireActor(actor); err != nil {
		return Cat{}, err
	}
	c, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Cat{}, ErrNotFound
	}
	return c, nil
}

// Delete elimina el reporte. Idempotente: borrar un id inexistente no es
// error. Si existe, solo el dueño actual puede borrarlo.
func (s *Service) Delete(ctx context.Context, actor auth.Claims, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// Ya no está: nada que hacer.
		return nil
	}
	if c.OwnerID != actor.UserID {
		return ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

// Apply agrega al actor como postulante. Idempotente: re-postularse no
// duplica ni falla. Nunca toca Adopted.
func (s *Service) Apply(ctx context.Context, actor auth.Claims, catID, adopterID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	adopterID = strings.TrimSpace(adopterID)
	if adopterID == "" {
		return ErrInvalidInput
	}
	// Nadie postula en nombre de otro.
	if adopterID != actor.UserID {
		return ErrForbidden
	}

	_, err := s.mutate(ctx, catID, func(c *Cat) error {
		if c.OwnerID == adopterID {
			return ErrForbidden
		}
		if c.IsApplicant(adopterID) {
			return errNoChange
		}
		c.AdopterIDs = append(c.AdopterIDs, adopterID)
		return nil
	})
	return err
}

// Confirm marca la adopción: requiere que adopterID ya sea postulante.
// No transfiere la custodia; eso es UpdateOwner (o Finalize, que hace
// ambas cosas en una sola escritura).
func (s *Service) Confirm(ctx context.Context, actor auth.Claims, catID, adopterID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	adopterID = strings.TrimSpace(adopterID)
	if adopterID == "" {
		return ErrInvalidInput
	}

	_, err := s.mutate(ctx, catID, func(c *Cat) error {
		if c.OwnerID != actor.UserID {
			return ErrForbidden
		}
		if !c.IsApplicant(adopterID) {
			return ErrBadState
		}
		if c.Adopted && c.ConfirmedAdopterID == adopterID {
			return errNoChange
		}
		c.Adopted = true
		c.ConfirmedAdopterID = adopterID
		return nil
	})
	return err
}

// UpdateOwner transfiere la custodia del reporte.
func (s *Service) UpdateOwner(ctx context.Context, actor auth.Claims, catID, newOwnerID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	newOwnerID = strings.TrimSpace(newOwnerID)
	if newOwnerID == "" {
		return ErrInvalidInput
	}

	_, err := s.mutate(ctx, catID, func(c *Cat) error {
		if c.OwnerID != actor.UserID {
			return ErrForbidden
		}
		if c.OwnerID == newOwnerID {
			return errNoChange
		}
		c.OwnerID = newOwnerID
		return nil
	})
	return err
}

// Finalize confirma y transfiere en una única escritura versionada.
// Confirm + UpdateOwner por separado dejan una ventana donde una de las
// dos escrituras puede quedar a medias; acá no existe esa ventana.
func (s *Service) Finalize(ctx context.Context, actor auth.Claims, catID, adopterID string) (Cat, error) {
	if err := requireActor(actor); err != nil {
		return Cat{}, err
	}
	adopterID = strings.TrimSpace(adopterID)
	if adopterID == "" {
		return Cat{}, ErrInvalidInput
	}

	return s.mutate(ctx, catID, func(c *Cat) error {
		if c.OwnerID != actor.UserID {
			return ErrForbidden
		}
		if !c.IsApplicant(adopterID) {
			return ErrBadState
		}
		if c.Adopted && c.ConfirmedAdopterID == adopterID && c.OwnerID == adopterID {
			return errNoChange
		}
		c.Adopted = true
		c.ConfirmedAdopterID = adopterID
		c.OwnerID = adopterID
		return nil
	})
}

// RemoveAdopter saca a un postulante de la lista (rechazo, o el propio
// postulante se baja). Si era el adoptante confirmado, el rechazo manda:
// se limpian Adopted y ConfirmedAdopterID.
func (s *Service) RemoveAdopter(ctx context.Context, actor auth.Claims, catID, adopterID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	adopterID = strings.TrimSpace(adopterID)
	if adopterID == "" {
		return ErrInvalidInput
	}

	_, err := s.mutate(ctx, catID, func(c *Cat) error {
		if c.OwnerID != actor.UserID && adopterID != actor.UserID {
			return ErrForbidden
		}
		if !c.IsApplicant(adopterID) {
			return errNoChange
		}

		kept := make([]string, 0, len(c.AdopterIDs))
		for _, id := range c.AdopterIDs {
			if id != adopterID {
				kept = append(kept, id)
			}
		}
		c.AdopterIDs = kept

		if c.ConfirmedAdopterID == adopterID {
			c.Adopted = false
			c.ConfirmedAdopterID = ""
		}
		return nil
	})
	return err
}

// mutate hace el ciclo leer-modificar-escribir contra el store versionado.
// Ante ErrConflict relee y reintenta exactamente una vez; a la segunda
// derrota devuelve ErrConflict al caller.
func (s *Service) mutate(ctx context.Context, catID string, fn func(*Cat) error) (Cat, error) {
	catID = strings.TrimSpace(catID)
	if catID == "" {
		return Cat{}, ErrInvalidInput
	}

	for attempt := 0; ; attempt++ {
		c, err := s.repo.GetByID(ctx, catID)
		if err != nil {
			return Cat{}, ErrNotFound
		}

		if err := fn(&c); err != nil {
			if errors.Is(err, errNoChange) {
				return c, nil
			}
			return Cat{}, err
		}

		c.UpdatedAt = s.now()
		err = s.repo.Update(ctx, c)
		if err == nil {
			c.Version++
			return c, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Cat{}, err
		}
		if attempt >= 1 {
			return Cat{}, ErrConflict
		}
	}
}

func requireActor(actor auth.Claims) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return ErrUnauthorized
	}
	return nil
}
