package agent

import (
	"fmt"
	"sort"
)

// Registry is the allowlist of runnable agents. A pass may only name ids
// registered here; anything else is rejected before execution and never
// granted environment or secrets access.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent. Duplicate ids are an error.
func (r *Registry) Register(a Agent) error {
	id := a.ID()
	if id == "" {
		return fmt.Errorf("agent with empty id")
	}
	if _, exists := r.agents[id]; exists {
		return fmt.Errorf("agent %q already registered", id)
	}
	r.agents[id] = a
	return nil
}

// Get looks up an agent by id.
func (r *Registry) Get(id string) (Agent, bool) {
	a, ok := r.agents[id]
	return a, ok
}

// IDs returns all registered ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
