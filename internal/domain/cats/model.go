package cats

import "time"

// Sex define el sexo del gato.
// @Enum male, female
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// YesNo se usa para castrated, tal cual lo maneja la app.
// @Enum yes, no
type YesNo string

const (
	Yes YesNo = "yes"
	No  YesNo = "no"
)

// Location son las coordenadas del reporte. Valores opacos del provider
// de geolocalización; no validamos rangos.
type Location struct {
	Lat float64
	Lng float64
}

// Cat es un reporte de adopción: el registro de verdad sobre el que
// operan dueño y adoptantes.
//
// Invariantes (ver tests):
//   - Adopted == true ⟺ ConfirmedAdopterID != ""
//   - ConfirmedAdopterID, si está, pertenece a AdopterIDs
//   - AdopterIDs sin duplicados; el orden es el orden de postulación
//   - OwnerID cambia una sola vez, al confirmar la adopción
type Cat struct {
	ID      string
	OwnerID string

	Name        string
	Sex         Sex
	Weight      float64
	Vaccination string
	SpecialCare string
	Description string
	Castrated   YesNo
	Image       string // URI opaca
	Location    Location

	Adopted            bool
	AdopterIDs         []string
	ConfirmedAdopterID string

	// Version sube en cada Update; el repo rechaza escrituras con
	// versión vieja (ErrConflict). El store es la frontera de
	// concurrencia, no el engine.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsApplicant reporta si userID está en la lista de postulantes.
func (c Cat) IsApplicant(userID string) bool {
	for _, id := range c.AdopterIDs {
		if id == userID {
			return true
		}
	}
	return false
}
