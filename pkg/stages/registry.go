package stages

import (
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/registry"
)

// Registry maps stage identifiers to implementations. It is sealed on
// construction.
type Registry struct {
	stages registry.Registry[Stage]
}

// NewRegistry registers the given stages under their IDs and seals the result
func NewRegistry(list ...Stage) (*Registry, error) {
	reg := registry.New[Stage]()
	for _, s := range list {
		if err := reg.Register(s.ID(), s); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "cannot register stage %q", s.ID())
		}
	}
	reg.Seal()
	return &Registry{stages: reg}, nil
}

// Lookup returns the stage registered under id
func (r *Registry) Lookup(id string) (Stage, error) {
	s, err := r.stages.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "unknown stage %q", id).
			WithDetail(errors.DetailStage, id).
			WithDetail("known", r.stages.List())
	}
	return s, nil
}

// IDs lists the registered identifiers in sorted order
func (r *Registry) IDs() []string {
	return r.stages.List()
}

// Has reports whether id is registered
func (r *Registry) Has(id string) bool {
	return r.stages.Has(id)
}
