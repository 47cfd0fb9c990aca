package session

import (
	"math/rand"
	"time"
)

// Backoff exponencial para errores de red en los writes de sesión.
// Los errores de validación no se reintentan: requieren otro input.
var retryDelays = []time.Duration{
	200 * time.Millisecond,
	1 * time.Second,
	3 * time.Second,
}

const (
	maxAttempts  = 3
	jitterFactor = 0.2 // ±20%
)

// nextRetryDelay devuelve el delay del intento attempt (0-indexado)
// con jitter para no sincronizar clientes.
func nextRetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(retryDelays) {
		attempt = len(retryDelays) - 1
	}

	base := retryDelays[attempt]
	jitterRange := float64(base) * jitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}
