package game

import (
	"fmt"
	"sort"
	"sync"

	"telegram-duel-bot/internal/model"
)

// Registry manages game registration and lookup.
// It provides a thread-safe way to register and retrieve game descriptors by
// command or kind.
type Registry struct {
	byCommand map[string]*Descriptor
	byKind    map[model.GameKind]*Descriptor
	mu        sync.RWMutex
}

// NewRegistry creates a new game registry.
func NewRegistry() *Registry {
	return &Registry{
		byCommand: make(map[string]*Descriptor),
		byKind:    make(map[model.GameKind]*Descriptor),
	}
}

// Register adds a game descriptor to the registry.
// A descriptor with the same command or kind replaces the previous one.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("cannot register nil descriptor")
	}
	if d.Command == "" {
		return fmt.Errorf("game command cannot be empty")
	}
	if d.New == nil {
		return fmt.Errorf("game %q has no constructor", d.Command)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCommand[d.Command] = d
	r.byKind[d.Kind] = d
	return nil
}

// Get retrieves a descriptor by its command.
func (r *Registry) Get(command string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byCommand[command]
	return d, ok
}

// GetKind retrieves a descriptor by its game kind.
func (r *Registry) GetKind(kind model.GameKind) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byKind[kind]
	return d, ok
}

// Commands returns all registered game commands.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make([]string, 0, len(r.byCommand))
	for cmd := range r.byCommand {
		commands = append(commands, cmd)
	}
	return commands
}

// All returns every registered descriptor sorted by command, for help text
// and iteration.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Descriptor, 0, len(r.byCommand))
	for _, d := range r.byCommand {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Command < all[j].Command })
	return all
}

// Count returns the number of registered games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCommand)
}
