package cats

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"adopt-meow/internal/middleware"
	"adopt-meow/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/cats", func(cr chi.Router) {
		cr.Get("/", listCatsHandler(svc))
		cr.Post("/", createCatHandler(svc))

		cr.Route("/{catID}", func(ir chi.Router) {
			ir.Get("/", getCatHandler(svc))
			ir.Delete("/", deleteCatHandler(svc))

			// Lifecycle
			ir.Post("/apply", applyHandler(svc))
			ir.Post("/confirm", confirmHandler(svc))
			ir.Post("/owner", updateOwnerHandler(svc))
			ir.Post("/finalize", finalizeHandler(svc))
			ir.Delete("/adopters/{adopterID}", removeAdopterHandler(svc))

			// Estado derivado por viewer
			ir.Get("/novedad", novedadHandler(svc))
			ir.Post("/novedad/ack", ackNovedadHandler(svc))
		})
	})
}

type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type createCatRequest struct {
	Name        string          `json:"name"`
	Sex         string          `json:"sex"`
	Weight      float64         `json:"weight"`
	Vaccination string          `json:"vaccinations"`
	SpecialCare string          `json:"specialCare"`
	Description string          `json:"description"`
	Castrated   string          `json:"castrated"`
	Image       string          `json:"image"`
	Location    locationPayload `json:"location"`
}

// catResponse usa los nombres de campo que consume la app móvil (adopterId es
// el array de postulantes, no un escalar).
type catResponse struct {
	ID                 string          `json:"id"`
	OwnerID            string          `json:"ownerId"`
	Name               string          `json:"name"`
	Sex                string          `json:"sex"`
	Weight             float64         `json:"weight"`
	Vaccination        string          `json:"vaccinations"`
	SpecialCare        string          `json:"specialCare"`
	Description        string          `json:"description"`
	Castrated          string          `json:"castrated"`
	Image              string          `json:"image,omitempty"`
	Location           locationPayload `json:"location"`
	Adopted            bool            `json:"adopted"`
	AdopterIDs         []string        `json:"adopterId"`
	ConfirmedAdopterID string          `json:"confirmedAdopterId,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type adopterRequest struct {
	AdopterID string `json:"adopterId"`
}

type ownerRequest struct {
	OwnerID string `json:"ownerId"`
}

type novedadResponse struct {
	CatID   string  `json:"catId"`
	Novedad Novedad `json:"novedad"`
}

func createCatHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req createCatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Create(r.Context(), actor, CreateInput{
			Name:        req.Name,
			Sex:         req.Sex,
			Weight:      req.Weight,
			Vaccination: req.Vaccination,
			SpecialCare: req.SpecialCare,
			Description: req.Description,
			Castrated:   req.Castrated,
			Image:       req.Image,
			Location:    Location{Lat: req.Location.Latitude, Lng: req.Location.Longitude},
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toCatResponse(c))
	}
}

func listCatsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		items := svc.List(r.Context(), actor)
		out := make([]catResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toCatResponse(c))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getCatHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		c, err := svc.GetByID(r.Context(), actor, chi.URLParam(r, "catID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCatResponse(c))
	}
}

func deleteCatHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), actor, chi.URLParam(r, "catID")); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func applyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		// El body es opcional: sin body postula el propio actor.
		adopterID := actor.UserID
		var req adopterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && strings.TrimSpace(req.AdopterID) != "" {
			adopterID = strings.TrimSpace(req.AdopterID)
		}

		if err := svc.Apply(r.Context(), actor, chi.URLParam(r, "catID"), adopterID); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func confirmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req adopterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.Confirm(r.Context(), actor, chi.URLParam(r, "catID"), req.AdopterID); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func updateOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req ownerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.UpdateOwner(r.Context(), actor, chi.URLParam(r, "catID"), req.OwnerID); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func finalizeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req adopterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Finalize(r.Context(), actor, chi.URLParam(r, "catID"), req.AdopterID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCatResponse(c))
	}
}

func removeAdopterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		err := svc.RemoveAdopter(r.Context(), actor, chi.URLParam(r, "catID"), chi.URLParam(r, "adopterID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func novedadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		catID := chi.URLParam(r, "catID")
		n, err := svc.Novedad(r.Context(), actor, catID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, novedadResponse{CatID: catID, Novedad: n})
	}
}

func ackNovedadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireClaims(w, r)
		if !ok {
			return
		}

		catID := chi.URLParam(r, "catID")
		n, err := svc.AcknowledgeNovedad(r.Context(), actor, catID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, novedadResponse{CatID: catID, Novedad: n})
	}
}

func requireClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return auth.Claims{}, false
	}
	return claims, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "cat not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toCatResponse(c Cat) catResponse {
	adopters := c.AdopterIDs
	if adopters == nil {
		adopters = []string{}
	}
	return catResponse{
		ID:                 c.ID,
		OwnerID:            c.OwnerID,
		Name:               c.Name,
		Sex:                string(c.Sex),
		Weight:             c.Weight,
		Vaccination:        c.Vaccination,
		SpecialCare:        c.SpecialCare,
		Description:        c.Description,
		Castrated:          string(c.Castrated),
		Image:              c.Image,
		Location:           locationPayload{Latitude: c.Location.Lat, Longitude: c.Location.Lng},
		Adopted:            c.Adopted,
		AdopterIDs:         adopters,
		ConfirmedAdopterID: c.ConfirmedAdopterID,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// writeJSON duplicado intencionalmente por módulo (ver users/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
