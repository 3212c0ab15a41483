package players

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry holds one Service per partition key.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*Service
	order    []string
}

// NewRegistry builds a registry from the given services. Later duplicates win.
func NewRegistry(services ...*Service) *Registry {
	r := &Registry{services: make(map[string]*Service, len(services))}
	for _, svc := range services {
		r.Add(svc)
	}
	return r
}

// Add registers svc under its partition key.
func (r *Registry) Add(svc *Service) {
	if svc == nil {
		return
	}
	key := normalizeSport(svc.Partition())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[key]; !exists {
		r.order = append(r.order, key)
	}
	r.services[key] = svc
}

// Service returns the service for sport, matched case-insensitively.
func (r *Registry) Service(sport string) (*Service, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[normalizeSport(sport)]
	return svc, ok
}

// Sports returns registered partition keys in registration order.
func (r *Registry) Sports() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Statuses returns every service status keyed by sport.
func (r *Registry) Statuses() map[string]Status {
	out := make(map[string]Status)
	for _, sport := range r.Sports() {
		if svc, ok := r.Service(sport); ok {
			out[sport] = svc.Status()
		}
	}
	return out
}

// Ready reports whether every registered service holds a dictionary.
func (r *Registry) Ready() bool {
	sports := r.Sports()
	if len(sports) == 0 {
		return false
	}
	for _, sport := range sports {
		svc, _ := r.Service(sport)
		if svc == nil || !svc.IsReady() {
			return false
		}
	}
	return true
}

// NotReady lists sports without a dictionary, sorted.
func (r *Registry) NotReady() []string {
	var out []string
	for _, sport := range r.Sports() {
		if svc, ok := r.Service(sport); ok && !svc.IsReady() {
			out = append(out, sport)
		}
	}
	sort.Strings(out)
	return out
}

// LoadAll runs Load on every service concurrently and returns the first error.
// A failing sport does not cancel the others.
func (r *Registry) LoadAll(ctx context.Context) error {
	var g errgroup.Group
	for _, sport := range r.Sports() {
		svc, ok := r.Service(sport)
		if !ok {
			continue
		}
		g.Go(func() error {
			return svc.Load(ctx)
		})
	}
	return g.Wait()
}

// Close closes every service.
func (r *Registry) Close() {
	for _, sport := range r.Sports() {
		if svc, ok := r.Service(sport); ok {
			svc.Close()
		}
	}
}

func normalizeSport(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
