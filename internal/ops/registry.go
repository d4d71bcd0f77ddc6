/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupHygiene CommandGroup = "hygiene" // check, fix
	GroupHooks   CommandGroup = "hooks"   // hook lifecycle, push guard
	GroupSupport CommandGroup = "support" // init, version
)

// groupOrder is the order groups appear in root help.
var groupOrder = []CommandGroup{GroupHygiene, GroupHooks, GroupSupport}

var groupTitles = map[CommandGroup]string{
	GroupHygiene: "Hygiene Commands:",
	GroupHooks:   "Hook Commands:",
	GroupSupport: "Support Commands:",
}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

// Global registry instance
var globalRegistry = NewRegistry()

// GetRegistry returns the global command registry
func GetRegistry() *Registry {
	return globalRegistry
}

// Register adds a command to the registry
func (r *Registry) Register(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	if _, ok := groupTitles[group]; !ok {
		return fmt.Errorf("unknown command group %q", group)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}

	registration := &CommandRegistration{
		Name:        name,
		Group:       group,
		Command:     cmd,
		Description: description,
	}

	r.commands[name] = registration
	r.groupIndex[group] = append(r.groupIndex[group], registration)

	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns the commands of a group in registration order
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*CommandRegistration, len(r.groupIndex[group]))
	copy(out, r.groupIndex[group])
	return out
}

// ListGroups returns all command groups and their command counts
func (r *Registry) ListGroups() map[CommandGroup]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[CommandGroup]int)
	for group, commands := range r.groupIndex {
		result[group] = len(commands)
	}
	return result
}

// ApplyGroups declares the cobra help groups on root and assigns each
// registered command attached to root to its group.
func (r *Registry) ApplyGroups(root *cobra.Command) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range groupOrder {
		if len(r.groupIndex[g]) == 0 || root.ContainsGroup(string(g)) {
			continue
		}
		root.AddGroup(&cobra.Group{ID: string(g), Title: groupTitles[g]})
	}
	for _, reg := range r.commands {
		if reg.Command != nil && reg.Command.Parent() == root {
			reg.Command.GroupID = string(reg.Group)
		}
	}
}
