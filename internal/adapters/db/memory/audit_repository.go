package memory

import (
	"context"
	"sync"

	"rotafacil/internal/domain/audit"
)

// AuditRepository keeps audit entries in insertion order
type AuditRepository struct {
	mu      sync.RWMutex
	entries []*audit.Entry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Record(_ context.Context, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := *entry
	r.entries = append(r.entries, &e)
	return nil
}

// List returns up to limit entries, newest first
func (r *AuditRepository) List(_ context.Context, limit int) ([]*audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit = audit.ClampLimit(limit)
	out := make([]*audit.Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := *r.entries[i]
		out = append(out, &e)
	}
	return out, nil
}
