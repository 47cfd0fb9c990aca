// Package session implementa el lado dispositivo de la autenticación:
// el manager que habla con el backend, guarda la credencial en un Store
// local y expone el estado de sesión al resto de la app.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"adopt-meow/internal/platform/httpclient"
)

var (
	// ErrNetwork: transporte caído, backend 5xx o una respuesta de
	// login malformada (sin header Authorization).
	ErrNetwork = errors.New("network error")

	// ErrValidation acompaña a los field errors acumulados; el caller
	// los lee con Errors().
	ErrValidation = errors.New("validation failed")
)

// FieldError replica el shape {field, message} que muestra la UI.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UserInfo es lo que el backend devuelve sobre el usuario autenticado.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image"`
	UserType string `json:"userType"`
}

// Manager es el session manager. Se construye explícito y se inyecta;
// nada de singletons globales.
type Manager struct {
	store Store
	http  *httpclient.Client
	sleep func(time.Duration)

	mu            sync.Mutex
	user          UserInfo
	authenticated bool
	restoring     bool
	errs          []FieldError
}

func NewManager(store Store, baseURL string, timeout time.Duration) (*Manager, error) {
	client, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:     store,
		http:      client,
		sleep:     time.Sleep,
		restoring: true,
	}, nil
}

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Image    string `json:"image,omitempty"`
	UserType string `json:"userType"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registra la cuenta. No inicia sesión: devuelve el usuario
// creado y el caller decide hacer SignIn.
func (m *Manager) Signup(ctx context.Context, in SignupInput) (UserInfo, error) {
	m.ClearErrors()

	var out UserInfo
	err := m.postWithRetry(ctx, "/api/register", in, &out)
	if err != nil {
		m.captureError(err)
		return UserInfo{}, err
	}
	return out, nil
}

// SignIn autentica y persiste {token, userId, userType} como unidad.
// Exige body Y header Authorization: una respuesta de éxito sin header
// es un fallo, nunca un login parcial.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	m.ClearErrors()

	var body UserInfo
	headers, err := m.doWithRetry(ctx, http.MethodPost, "/api/login", credentials{Email: email, Password: password}, &body)
	if err != nil {
		m.captureError(err)
		return err
	}

	token := bearerToken(headers.Get("Authorization"))
	if token == "" || strings.TrimSpace(body.ID) == "" {
		m.captureError(ErrNetwork)
		return ErrNetwork
	}

	if err := m.store.Save(ctx, Session{
		Token:    token,
		UserID:   body.ID,
		UserType: body.UserType,
	}); err != nil {
		m.captureError(ErrNetwork)
		return err
	}

	m.mu.Lock()
	m.user = body
	m.authenticated = true
	m.mu.Unlock()
	return nil
}

// Logout limpia store y memoria incondicionalmente. Nunca falla.
func (m *Manager) Logout(ctx context.Context) {
	_ = m.store.Clear(ctx)

	m.mu.Lock()
	m.user = UserInfo{}
	m.authenticated = false
	m.errs = nil
	m.mu.Unlock()
}

// Restore corre una vez al arrancar el proceso. Sin token persistido:
// sesión anónima, sin error. Token inválido: se descarta en silencio y
// la sesión queda anónima (recuperación, no condición fatal).
func (m *Manager) Restore(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.restoring = false
		m.mu.Unlock()
	}()

	s, ok, err := m.store.Load(ctx)
	if err != nil || !ok || strings.TrimSpace(s.Token) == "" {
		return
	}

	var body UserInfo
	_, verr := m.http.DoJSONHeader(ctx, http.MethodGet, "/api/verify",
		map[string]string{"Authorization": "Bearer " + s.Token}, nil, &body)
	if verr != nil || strings.TrimSpace(body.ID) == "" {
		_ = m.store.Clear(ctx)
		return
	}

	m.mu.Lock()
	m.user = body
	m.authenticated = true
	m.mu.Unlock()
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// Loading reporta el sub-estado transitorio Restoring: la UI que
// depende de la sesión espera hasta que esto sea false.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restoring
}

func (m *Manager) CurrentUser() (UserInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user, m.authenticated
}

// Token devuelve la credencial persistida (para los requests del engine).
func (m *Manager) Token(ctx context.Context) (string, bool) {
	s, ok, err := m.store.Load(ctx)
	if err != nil || !ok {
		return "", false
	}
	return s.Token, s.Token != ""
}

// Errors devuelve la última lista de errores de validación.
func (m *Manager) Errors() []FieldError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FieldError(nil), m.errs...)
}

// ClearErrors resetea la lista (estado de UI entre intentos); no toca
// la sesión.
func (m *Manager) ClearErrors() {
	m.mu.Lock()
	m.errs = nil
	m.mu.Unlock()
}

func (m *Manager) postWithRetry(ctx context.Context, path string, in, out any) error {
	_, err := m.doWithRetry(ctx, http.MethodPost, path, in, out)
	return err
}

// doWithRetry reintenta solo errores de transporte/5xx con backoff;
// los 4xx llevan información del usuario y se devuelven al primer golpe.
func (m *Manager) doWithRetry(ctx context.Context, method, path string, in, out any) (http.Header, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Join(ErrNetwork, err)
			}
			m.sleep(nextRetryDelay(attempt - 1))
		}

		headers, err := m.http.DoJSONHeader(ctx, method, path, nil, in, out)
		if err == nil {
			return headers, nil
		}

		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode < 500 {
				return headers, m.classifyClientError(httpErr)
			}
			lastErr = errors.Join(ErrNetwork, err)
			continue
		}

		// Transporte caído (DNS, conexión, timeout).
		lastErr = errors.Join(ErrNetwork, err)
	}
	return nil, lastErr
}

// classifyClientError mapea el body de un 4xx a field errors, con los
// mismos fallbacks que espera la UI: errors[] → tal cual; message →
// campo "network"; cualquier otra cosa → error desconocido.
func (m *Manager) classifyClientError(httpErr *httpclient.HTTPError) error {
	var payload struct {
		Errors  []FieldError `json:"errors"`
		Message string       `json:"message"`
	}
	if json.Unmarshal([]byte(httpErr.Body), &payload) == nil {
		if len(payload.Errors) > 0 {
			m.setErrors(payload.Errors)
			return ErrValidation
		}
		if payload.Message != "" {
			m.setErrors([]FieldError{{Field: "network", Message: payload.Message}})
			return ErrValidation
		}
	}

	m.setErrors([]FieldError{{Field: "network", Message: "Error desconocido"}})
	return ErrValidation
}

func (m *Manager) captureError(err error) {
	if errors.Is(err, ErrValidation) {
		return // ya quedó registrado por classifyClientError
	}
	m.setErrors([]FieldError{{Field: "network", Message: "Error de red"}})
}

func (m *Manager) setErrors(errs []FieldError) {
	m.mu.Lock()
	m.errs = errs
	m.mu.Unlock()
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
