// Package preview issues short-lived handles for staged file contents so
// clients can render them before upload.
package preview

import (
	"sync"

	"github.com/google/uuid"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// Handle is an opaque token naming one preview.
type Handle string

// Preview is the content behind a handle.
type Preview struct {
	Name     string
	MimeType string
	Data     []byte
}

// Registry holds previews until they are released.
type Registry struct {
	mu    sync.RWMutex
	items map[Handle]Preview
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[Handle]Preview)}
}

// Acquire stores p and returns a fresh handle for it.
func (r *Registry) Acquire(p Preview) Handle {
	h := Handle(uuid.NewString())
	r.mu.Lock()
	r.items[h] = p
	r.mu.Unlock()
	return h
}

// Release drops the preview behind h. Releasing twice is a no-op.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	delete(r.items, h)
	r.mu.Unlock()
}

// Open returns the preview behind h.
func (r *Registry) Open(h Handle) (Preview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[h]
	if !ok {
		return Preview{}, domain.ErrPreviewNotFound
	}
	return p, nil
}

// Len reports how many previews are held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
