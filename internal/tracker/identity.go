package tracker

import (
	"context"
	"time"

	"agency-cms/internal/shared/logger"

	"github.com/google/uuid"
)

// IdentityResolver hands out the visitor identifier persisted in a KVStore
type IdentityResolver struct {
	store  KVStore
	key    string
	ttl    time.Duration
	newID  func() string
	logger logger.Logger
}

// NewIdentityResolver creates a resolver storing the id under key for ttl
func NewIdentityResolver(store KVStore, key string, ttl time.Duration, log logger.Logger) *IdentityResolver {
	return &IdentityResolver{
		store:  store,
		key:    key,
		ttl:    ttl,
		newID:  uuid.NewString,
		logger: log.WithComponent("tracker.identity"),
	}
}

// Resolve returns the persisted identifier, creating and persisting one when
// absent. A store that cannot be read or written yields a fresh id that
// lives only for this call.
func (r *IdentityResolver) Resolve(ctx context.Context) string {
	id, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		r.logger.Warnf("Could not read visitor id: %v", err)
		return r.newID()
	}
	if found && id != "" {
		return id
	}

	id = r.newID()
	if err := r.store.Set(ctx, r.key, id, r.ttl); err != nil {
		r.logger.Warnf("Could not persist visitor id: %v", err)
	}
	return id
}
