// Package program holds the named stochastic functions the platform can
// execute, mirroring how scapes register against an evolution platform.
package program

import (
	"fmt"
	"sort"
	"sync"

	"tyche/internal/effect"
)

// Program is a named stochastic function with a human description.
type Program interface {
	Name() string
	Description() string
	Body() effect.Program
}

// Registry maps program names to programs. Duplicate registration is an
// error.
type Registry struct {
	mu       sync.RWMutex
	programs map[string]Program
}

func NewRegistry() *Registry {
	return &Registry{programs: make(map[string]Program)}
}

func (r *Registry) Register(p Program) error {
	if p == nil {
		return fmt.Errorf("program is required")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("program name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.programs[name]; exists {
		return fmt.Errorf("program already registered: %s", name)
	}
	r.programs[name] = p
	return nil
}

func (r *Registry) Lookup(name string) (Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[name]
	return p, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterDefaults installs the built-in demonstration programs.
func RegisterDefaults(r *Registry) error {
	defaults := []Program{
		Weather{},
		IceCream{},
		Geometric{P: 0.5},
		NormalProduct{},
		ScaledNormal{},
	}
	for _, p := range defaults {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}
