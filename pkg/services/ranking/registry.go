package ranking

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultKinds maps the commodities ranked out of the box
var DefaultKinds = map[string]Kind{
	"VCPU": KindUtilization,
	"VMem": KindDelta,
}

// Registry maps reason commodities to ranking kinds. Lookups ignore case.
type Registry interface {
	// Register adds or replaces the kind used for commodity
	Register(commodity string, kind Kind) error
	// Lookup returns the kind registered for commodity
	Lookup(commodity string) (Kind, error)
	// Commodities returns the registered commodities in sorted order
	Commodities() []string
}

type registry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
	names map[string]string // normalized -> display name
}

// NewRegistry creates a registry with DefaultKinds
func NewRegistry() Registry {
	r := &registry{
		kinds: make(map[string]Kind),
		names: make(map[string]string),
	}
	for commodity, kind := range DefaultKinds {
		_ = r.Register(commodity, kind)
	}
	return r
}

// NewRegistryWithOverrides applies overrides (commodity -> kind name) on top of DefaultKinds
func NewRegistryWithOverrides(overrides map[string]string) (Registry, error) {
	r := NewRegistry()
	for commodity, name := range overrides {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("commodity %q: %w", commodity, err)
		}
		if err := r.Register(commodity, kind); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *registry) Register(commodity string, kind Kind) error {
	if commodity == "" {
		return fmt.Errorf("commodity name cannot be empty")
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(commodity)
	r.kinds[key] = kind
	if _, exists := r.names[key]; !exists {
		r.names[key] = commodity
	}
	return nil
}

func (r *registry) Lookup(commodity string) (Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, exists := r.kinds[strings.ToLower(commodity)]
	if !exists {
		return "", fmt.Errorf("no ranking registered for commodity %q, supported: %v", commodity, r.commodities())
	}
	return kind, nil
}

func (r *registry) Commodities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commodities()
}

func (r *registry) commodities() []string {
	names := make([]string, 0, len(r.names))
	for _, name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
