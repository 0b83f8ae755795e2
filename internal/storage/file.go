package storage

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/spf13/afero"
)

const temporarySuffix = ".tmp"

var errMissingFilePath = errors.New("document file path is required")

// FileStore keeps the document as an indented JSON file.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore binds the store to path on the given filesystem.
func NewFileStore(filesystem afero.Fs, path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errMissingFilePath
	}
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	return &FileStore{fs: filesystem, path: filepath.Clean(path)}, nil
}

func (store *FileStore) Load(_ context.Context) (leaderboard.Document, error) {
	raw, err := afero.ReadFile(store.fs, store.path)
	if errors.Is(err, fs.ErrNotExist) {
		return leaderboard.Document{}, leaderboard.ErrDocumentMissing
	}
	if err != nil {
		return leaderboard.Document{}, leaderboard.NewStorageError("read", err)
	}
	return leaderboard.DecodeDocument(raw)
}

// Save writes a sibling temporary file and renames it over the document.
func (store *FileStore) Save(_ context.Context, document leaderboard.Document) error {
	raw, err := leaderboard.EncodeDocument(document)
	if err != nil {
		return leaderboard.NewStorageError("encode", err)
	}
	if err := store.fs.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return leaderboard.NewStorageError("mkdir", err)
	}
	temporaryPath := store.path + temporarySuffix
	if err := afero.WriteFile(store.fs, temporaryPath, raw, 0o644); err != nil {
		_ = store.fs.Remove(temporaryPath)
		return leaderboard.NewStorageError("write", err)
	}
	if err := store.fs.Rename(temporaryPath, store.path); err != nil {
		_ = store.fs.Remove(temporaryPath)
		return leaderboard.NewStorageError("rename", err)
	}
	return nil
}

func (store *FileStore) Initialize(ctx context.Context, seed leaderboard.Document) (bool, error) {
	exists, err := afero.Exists(store.fs, store.path)
	if err != nil {
		return false, leaderboard.NewStorageError("stat", err)
	}
	if exists {
		return false, nil
	}
	if err := store.Save(ctx, seed); err != nil {
		return false, err
	}
	return true, nil
}
