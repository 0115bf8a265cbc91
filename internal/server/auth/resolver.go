package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/intelligence/internal/common"
	"github.com/dmitrijs2005/intelligence/internal/server/models"
)

var (
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrStoreUnavailable  = errors.New("user store unavailable")
)

// Resolver maps a verified subject to the current user record.
type Resolver interface {
	Resolve(ctx context.Context, subject string) (*models.User, error)
}

// UserStore is the lookup the resolver needs. users.Repository satisfies it.
type UserStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
}

// StoreResolver resolves subjects through a UserStore.
type StoreResolver struct {
	store UserStore
}

func NewStoreResolver(store UserStore) *StoreResolver {
	return &StoreResolver{store: store}
}

func (r *StoreResolver) Resolve(ctx context.Context, subject string) (*models.User, error) {
	u, err := r.store.FindByIdentifier(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if u == nil {
		return nil, ErrPrincipalNotFound
	}
	return u, nil
}
