package tool

import (
	"context"
	"sync"

	"github.com/yanmxa/codo/internal/message"
	"github.com/yanmxa/codo/internal/provider"
	"github.com/yanmxa/codo/internal/readtrack"
)

// Registry manages tool registration and execution. Registration order is
// preserved so schemas advertise deterministically.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Executor
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Executor)}
}

// Default builds a registry with the full tool set. The tracker records
// read_file calls; the validator gates edit_file on prior reads.
func Default(tracker *readtrack.Tracker, validator *readtrack.Validator) *Registry {
	r := NewRegistry()
	r.Register(&ReadFile{Tracker: tracker})
	r.Register(&ListFiles{})
	r.Register(&SearchFiles{})
	r.Register(&WebFetch{})
	r.Register(&CreateFile{})
	r.Register(&EditFile{Validator: validator})
	r.Register(&DeleteFile{})
	r.Register(&ExecuteCommand{})
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Specs returns provider tool definitions for every registered tool.
func (r *Registry) Specs() []provider.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]provider.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, provider.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return specs
}

// Execute runs a tool by name.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any, cwd string) message.ToolResult {
	t, ok := r.Get(name)
	if !ok {
		return errResult("unknown tool: " + name)
	}
	return t.Execute(ctx, params, cwd)
}
