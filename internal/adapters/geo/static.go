// Package geo trae los providers de ubicación concretos. El port vive en
// internal/ports/geo.
package geo

import (
	"context"

	port "adopt-meow/internal/ports/geo"
)

// StaticProvider devuelve siempre la misma posición con permiso concedido.
// Sirve como provider de dev y como fallback configurable cuando el
// proceso no corre en un dispositivo con GPS.
type StaticProvider struct {
	Pos port.Position
}

func NewStatic(lat, lng float64) *StaticProvider {
	return &StaticProvider{Pos: port.Position{Lat: lat, Lng: lng}}
}

func (p *StaticProvider) RequestPermission(ctx context.Context) (bool, error) {
	return true, nil
}

func (p *StaticProvider) CurrentPosition(ctx context.Context) (port.Position, error) {
	return p.Pos, nil
}
