package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"adopt-meow/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/register", registerHandler(svc))
	r.Post("/login", loginHandler(svc))
	r.Get("/verify", verifyHandler(svc))
	r.Get("/users/{userID}", getUserHandler(svc))
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Image    string `json:"image"`
	UserType string `json:"userType"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
	UserType string `json:"userType"`
}

// errorsResponse es el shape que la app espera en errores de validación:
// {"errors":[{"field":"...","message":"..."}]}
type errorsResponse struct {
	Errors ValidationErrors `json:"errors"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Image:    req.Image,
			UserType: req.UserType,
		})
		if err != nil {
			var verrs ValidationErrors
			if errors.As(err, &verrs) {
				writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: verrs})
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrBadCredentials) {
				writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Credenciales inválidas"})
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// El token va en el header; el body lleva los datos del usuario.
		// El cliente trata la falta de este header como login fallido.
		w.Header().Set("Authorization", "Bearer "+token)
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func verifyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Token inválido"})
			return
		}

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Token inválido"})
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Image:    u.Image,
		UserType: string(u.UserType),
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// (users/cats) para no crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
