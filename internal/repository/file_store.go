package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"moveit-auth/internal/domain"
)

// FileStore persiste la coleccion como un documento JSON en disco.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) LoadAll(_ context.Context) []domain.User {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read user store failed", zap.String("path", s.path), zap.Error(err))
		}
		return []domain.User{}
	}
	return decodeUsers(data, s.logger)
}

func (s *FileStore) SaveAll(_ context.Context, users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	return writeAtomicFile(s.path, data)
}

// writeAtomicFile escribe en un temporal del mismo directorio y lo renombra.
func writeAtomicFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".users-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func decodeUsers(data []byte, logger *zap.Logger) []domain.User {
	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		logger.Warn("user store is corrupt, starting empty", zap.Error(err))
		return []domain.User{}
	}
	if users == nil {
		return []domain.User{}
	}
	return users
}
