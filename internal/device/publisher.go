// Package device implementa los flujos del lado dispositivo que van más
// allá de la sesión: hoy, publicar un reporte de adopción con la posición
// que entrega el provider de ubicación.
package device

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adopt-meow/internal/platform/httpclient"
	"adopt-meow/internal/ports/geo"
	"adopt-meow/internal/session"
)

// ErrNotSignedIn: no hay credencial persistida; el caller debe pasar por
// el session manager antes de publicar.
var ErrNotSignedIn = errors.New("not signed in")

// Publisher arma y envía el reporte de adopción. La ubicación no viaja en
// el input: se resuelve contra el provider en el momento de publicar.
type Publisher struct {
	store    session.Store
	location geo.Provider
	http     *httpclient.Client
}

func NewPublisher(store session.Store, location geo.Provider, baseURL string, timeout time.Duration) (*Publisher, error) {
	client, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		store:    store,
		location: location,
		http:     client,
	}, nil
}

type ListingInput struct {
	Name        string
	Sex         string
	Weight      float64
	Vaccination string
	SpecialCare string
	Description string
	Castrated   string
	Image       string
}

// Listing es la vista mínima del reporte creado que el dispositivo usa.
type Listing struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Name    string `json:"name"`
}

type listingPayload struct {
	Name        string          `json:"name"`
	Sex         string          `json:"sex"`
	Weight      float64         `json:"weight"`
	Vaccination string          `json:"vaccinations"`
	SpecialCare string          `json:"specialCare"`
	Description string          `json:"description"`
	Castrated   string          `json:"castrated"`
	Image       string          `json:"image,omitempty"`
	Location    locationPayload `json:"location"`
}

type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Publish pide permiso de ubicación, toma la posición actual y crea el
// reporte. El permiso denegado y el provider caído se devuelven con sus
// sentinels (geo.ErrPermissionDenied, geo.ErrUnavailable); no hay
// publicación sin posición.
func (p *Publisher) Publish(ctx context.Context, in ListingInput) (Listing, error) {
	s, ok, err := p.store.Load(ctx)
	if err != nil || !ok || strings.TrimSpace(s.Token) == "" {
		return Listing{}, ErrNotSignedIn
	}

	granted, err := p.location.RequestPermission(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("request location permission: %w", err)
	}
	if !granted {
		return Listing{}, geo.ErrPermissionDenied
	}

	pos, err := p.location.CurrentPosition(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("current position: %w", err)
	}

	var out Listing
	_, err = p.http.DoJSONHeader(ctx, http.MethodPost, "/api/cats",
		map[string]string{"Authorization": "Bearer " + s.Token},
		listingPayload{
			Name:        in.Name,
			Sex:         in.Sex,
			Weight:      in.Weight,
			Vaccination: in.Vaccination,
			SpecialCare: in.SpecialCare,
			Description: in.Description,
			Castrated:   in.Castrated,
			Image:       in.Image,
			Location:    locationPayload{Latitude: pos.Lat, Longitude: pos.Lng},
		}, &out)
	if err != nil {
		return Listing{}, err
	}
	return out, nil
}
