// Package statestore persists the small pieces of state the pipeline
// carries between runs, the login session and the set of already
// processed quiz urls, to local files mirrored onto github gists.
package statestore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// Store reads and writes one opaque state document.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FileStore keeps the document in a single file on disk. Load returns
// os.ErrNotExist when the file has not been written yet.
type FileStore struct {
	Path string
}

func NewFileStore(path string) FileStore {
	return FileStore{Path: path}
}

func (s FileStore) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}

func (s FileStore) Save(ctx context.Context, data []byte) error {
	err := os.MkdirAll(filepath.Dir(s.Path), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0600)
}

// Mirror pairs the authoritative local store with a best effort online
// copy. Loads prefer the online document and write it through to the
// local store, saves always land locally and only warn when the online
// half is unreachable.
type Mirror struct {
	Local  Store
	Online Store
}

func (m Mirror) Load(ctx context.Context) ([]byte, error) {
	if m.Online != nil {
		data, err := m.Online.Load(ctx)
		if err == nil {
			if saveErr := m.Local.Save(ctx, data); saveErr != nil {
				slog.WarnContext(ctx, "failed to mirror online state to disk", "err", saveErr)
			}
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "failed to load state from online storage", "err", err)
		}
	}
	return m.Local.Load(ctx)
}

func (m Mirror) Save(ctx context.Context, data []byte) error {
	err := m.Local.Save(ctx, data)
	if m.Online != nil {
		if onlineErr := m.Online.Save(ctx, data); onlineErr != nil {
			slog.WarnContext(ctx, "failed to save state to online storage", "err", onlineErr)
		}
	}
	return err
}
