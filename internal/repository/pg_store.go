package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"moveit-auth/internal/domain"
)

const defaultDocumentName = "users"

// pgDocumentDB es el subconjunto de pgxpool.Pool que usa PgStore.
type pgDocumentDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgStore guarda la coleccion como un documento JSONB en la tabla user_documents.
type PgStore struct {
	db     pgDocumentDB
	name   string
	logger *zap.Logger
}

func NewPgStore(db pgDocumentDB, name string, logger *zap.Logger) *PgStore {
	if name == "" {
		name = defaultDocumentName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PgStore{db: db, name: name, logger: logger}
}

func (s *PgStore) LoadAll(ctx context.Context) []domain.User {
	const query = `SELECT body FROM user_documents WHERE name = $1`
	var body []byte
	if err := s.db.QueryRow(ctx, query, s.name).Scan(&body); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("load user document failed", zap.String("name", s.name), zap.Error(err))
		}
		return []domain.User{}
	}
	return decodeUsers(body, s.logger)
}

func (s *PgStore) SaveAll(ctx context.Context, users []domain.User) error {
	const query = `
		INSERT INTO user_documents (name, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`
	data, err := encodeUsers(users)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, query, s.name, data); err != nil {
		return fmt.Errorf("save user document: %w", err)
	}
	return nil
}

// Update bloquea la fila del documento con SELECT ... FOR UPDATE dentro de
// una transaccion, de modo que las escrituras concurrentes se serializan.
func (s *PgStore) Update(ctx context.Context, fn MutateFunc) error {
	const (
		ensure = `
			INSERT INTO user_documents (name, body)
			VALUES ($1, '[]'::jsonb)
			ON CONFLICT (name) DO NOTHING
		`
		lock   = `SELECT body FROM user_documents WHERE name = $1 FOR UPDATE`
		update = `UPDATE user_documents SET body = $2, updated_at = now() WHERE name = $1`
	)

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensure, s.name); err != nil {
			return fmt.Errorf("ensure user document: %w", err)
		}
		var body []byte
		if err := tx.QueryRow(ctx, lock, s.name).Scan(&body); err != nil {
			return fmt.Errorf("lock user document: %w", err)
		}

		next, err := fn(decodeUsers(body, s.logger))
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		data, err := encodeUsers(next)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, update, s.name, data); err != nil {
			return fmt.Errorf("update user document: %w", err)
		}
		return nil
	})
}
