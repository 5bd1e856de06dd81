package workspace

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/appforge/internal/identity"
	"github.com/google/uuid"
)

type registryKey struct {
	owner identity.OwnerID
	id    string
}

// Registry keeps the coordinators of every connected workspace, keyed by
// owner and workspace id. An id is only visible to its owner.
type Registry struct {
	mu      sync.Mutex
	deps    Dependencies
	logger  *slog.Logger
	entries map[registryKey]*Coordinator
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Dependencies, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		deps:    deps,
		logger:  logger,
		entries: make(map[registryKey]*Coordinator),
	}
}

// Acquire returns the owner's coordinator for id, creating it when missing.
// An empty id allocates a new workspace.
func (r *Registry) Acquire(owner identity.OwnerID, id string) *Coordinator {
	if id == "" {
		id = uuid.NewString()
	}
	key := registryKey{owner: owner, id: id}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.entries[key]; ok {
		return c
	}
	c := NewCoordinator(id, owner, r.deps, r.logger)
	r.entries[key] = c
	r.logger.Debug("workspace created", "workspace_id", id)
	return c
}

// Lookup returns an existing coordinator.
func (r *Registry) Lookup(owner identity.OwnerID, id string) (*Coordinator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.entries[registryKey{owner: owner, id: id}]
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	return c, nil
}

// Release closes and forgets a workspace.
func (r *Registry) Release(owner identity.OwnerID, id string) {
	r.mu.Lock()
	c, ok := r.entries[registryKey{owner: owner, id: id}]
	delete(r.entries, registryKey{owner: owner, id: id})
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}

// Prune releases workspaces idle for longer than maxIdle and returns how
// many were dropped.
func (r *Registry) Prune(maxIdle time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	var stale []*Coordinator
	for key, c := range r.entries {
		if c.Idle(now) > maxIdle {
			stale = append(stale, c)
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	if len(stale) > 0 {
		r.logger.Info("pruned idle workspaces", "count", len(stale))
	}
	return len(stale)
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
