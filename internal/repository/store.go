package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"moveit-auth/internal/domain"
)

// ErrConflict se devuelve cuando un backend no logra aplicar una
// actualizacion optimista despues de varios reintentos.
var ErrConflict = errors.New("store update conflict")

// Store persiste la coleccion completa de usuarios como un unico documento.
// LoadAll nunca falla: un documento ausente o corrupto equivale a una
// coleccion vacia. SaveAll reemplaza el documento entero.
type Store interface {
	LoadAll(ctx context.Context) []domain.User
	SaveAll(ctx context.Context, users []domain.User) error
}

// MutateFunc recibe la coleccion actual y devuelve la coleccion a persistir.
// Un resultado nil indica que no hay nada que escribir.
type MutateFunc func(users []domain.User) ([]domain.User, error)

// Updater lo implementan los backends capaces de aplicar lectura,
// modificacion y escritura de forma atomica entre procesos.
type Updater interface {
	Update(ctx context.Context, fn MutateFunc) error
}

// Collection serializa las actualizaciones sobre un Store dentro del proceso.
type Collection struct {
	mu    sync.Mutex
	store Store
}

func NewCollection(store Store) *Collection {
	return &Collection{store: store}
}

// FindByEmail busca un usuario por email normalizado.
func (c *Collection) FindByEmail(ctx context.Context, email string) (domain.User, bool) {
	users := c.store.LoadAll(ctx)
	if i := IndexByEmail(users, email); i >= 0 {
		return users[i], true
	}
	return domain.User{}, false
}

// FindByID busca un usuario por id.
func (c *Collection) FindByID(ctx context.Context, id string) (domain.User, bool) {
	users := c.store.LoadAll(ctx)
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// Update aplica fn sobre la coleccion actual y persiste el resultado.
func (c *Collection) Update(ctx context.Context, fn MutateFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u, ok := c.store.(Updater); ok {
		return u.Update(ctx, fn)
	}

	next, err := fn(c.store.LoadAll(ctx))
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	return c.store.SaveAll(ctx, next)
}

// IndexByEmail devuelve la posicion del usuario con ese email o -1.
func IndexByEmail(users []domain.User, email string) int {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return -1
	}
	for i, u := range users {
		if strings.ToLower(u.Email) == email {
			return i
		}
	}
	return -1
}

// IndexByVerifyToken devuelve la posicion del usuario con ese token o -1.
func IndexByVerifyToken(users []domain.User, token string) int {
	if token == "" {
		return -1
	}
	for i, u := range users {
		if u.VerifyToken == token {
			return i
		}
	}
	return -1
}

func cloneUsers(users []domain.User) []domain.User {
	out := make([]domain.User, len(users))
	for i, u := range users {
		if u.OAuth != nil {
			link := *u.OAuth
			u.OAuth = &link
		}
		out[i] = u
	}
	return out
}
