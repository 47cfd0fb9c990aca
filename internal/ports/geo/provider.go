package geo

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
)

// Position son coordenadas opacas del dispositivo. No interpretamos nada
// más que lat/lng; la precisión es problema del provider.
type Position struct {
	Lat float64
	Lng float64
}

// Provider abstrae la fuente de ubicación (el GPS del dispositivo).
// Quien crea un reporte pide permiso y luego la posición actual.
type Provider interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (Position, error)
}
