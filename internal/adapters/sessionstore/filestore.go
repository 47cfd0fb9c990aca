// Package sessionstore persiste la sesión del dispositivo en un archivo
// JSON local.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"adopt-meow/internal/session"
)

// FileStore guarda las tres claves como un único documento: se escriben
// y se limpian juntas. La escritura es tmp + rename para que un corte a
// mitad de write no deje una sesión a medias.
type FileStore struct {
	path string
}

func New(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("sessionstore: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sessionstore: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Save(ctx context.Context, s session.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("sessionstore: marshal: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("sessionstore: write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("sessionstore: rename: %w", err)
	}
	return nil
}

func (f *FileStore) Load(ctx context.Context) (session.Session, bool, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("sessionstore: read: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		// Archivo corrupto: lo tratamos como sesión ausente.
		return session.Session{}, false, nil
	}
	if s.Token == "" {
		return session.Session{}, false, nil
	}
	return s, true, nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("sessionstore: clear: %w", err)
	}
	return nil
}
