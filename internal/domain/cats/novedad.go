package cats

import (
	"context"

	"adopt-meow/internal/ports/auth"
)

// Novedad es el estado derivado que ve cada postulante sobre un reporte.
// Nunca se guarda: se recomputa por (cat, viewer) para no tener una
// segunda fuente de verdad que se desincronice de AdopterIDs/Adopted.
type Novedad string

const (
	NovedadNone        Novedad = ""
	NovedadUnderReview Novedad = "under_review"
	NovedadApproved    Novedad = "approved"
	NovedadRejected    Novedad = "rejected"
)

// DeriveNovedad calcula el estado que ve un viewer sobre un reporte:
//   - el viewer no postuló → sin novedad
//   - postuló y el gato no está adoptado → en revisión
//   - adoptado y el viewer es el dueño actual → aprobado
//     (tras la transferencia el dueño actual ES el adoptante confirmado;
//     la asimetría es intencional, no "arreglarla")
//   - adoptado y el viewer no es el dueño → rechazado
func DeriveNovedad(c Cat, viewerID string) Novedad {
	if viewerID == "" || !c.IsApplicant(viewerID) {
		return NovedadNone
	}
	if !c.Adopted {
		return NovedadUnderReview
	}
	if c.OwnerID == viewerID {
		return NovedadApproved
	}
	return NovedadRejected
}

// Novedad deriva el estado para el actor sobre un reporte puntual.
func (s *Service) Novedad(ctx context.Context, actor auth.Claims, catID string) (Novedad, error) {
	c, err := s.GetByID(ctx, actor, catID)
	if err != nil {
		return NovedadNone, err
	}
	return DeriveNovedad(c, actor.UserID), nil
}

// AcknowledgeNovedad es la limpieza que dispara el usuario al descartar
// una novedad:
//   - aprobado → el reporte se cumplió, se borra el registro
//   - rechazado → el viewer sale de la lista de postulantes
//   - en revisión / sin novedad → no hay nada que limpiar
//
// Devuelve la novedad sobre la que actuó.
func (s *Service) AcknowledgeNovedad(ctx context.Context, actor auth.Claims, catID string) (Novedad, error) {
	c, err := s.GetByID(ctx, actor, catID)
	if err != nil {
		return NovedadNone, err
	}

	n := DeriveNovedad(c, actor.UserID)
	switch n {
	case NovedadApproved:
		if err := s.Delete(ctx, actor, catID); err != nil {
			return n, err
		}
	case NovedadRejected:
		if err := s.RemoveAdopter(ctx, actor, catID, actor.UserID); err != nil {
			return n, err
		}
	}
	return n, nil
}
