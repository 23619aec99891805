// Package tooling routes named tool calls from the voice session to local
// actions, deferred actions and server round-trips.
package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Call is one tool invocation emitted by the voice session.
type Call struct {
	ID         string `json:"toolCallId"`
	Name       string `json:"name"`
	Parameters string `json:"parameters"`
}

// Result is what flows back into the voice session. Deferred results are
// acknowledgments; the real content arrives later through the pending map.
type Result struct {
	Content  string `json:"content"`
	URL      string `json:"url,omitempty"`
	Deferred bool   `json:"deferred,omitempty"`
}

// Error is the structured failure value sent through the session's error
// channel. Level distinguishes warnings from hard errors.
type Error struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Content string `json:"content"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an Error whose Content is safe to speak to the user.
func newError(code, spoken string, err error) *Error {
	return &Error{Code: code, Level: "warn", Content: spoken, Err: err}
}

// Tool is one dispatchable action.
type Tool interface {
	Name() string
	Description() string
	// Schema declares the tool's parameters; nil means any blob passes.
	Schema() *jsonschema.Schema
	// Immediate tools resolve inside Dispatch; others acknowledge and
	// complete later.
	Immediate() bool
	Execute(ctx context.Context, params map[string]any) (Result, error)
}

// Registry holds tools in registration order. Aliases map alternate call
// names onto a registered tool; the voice vendor's configs use more than
// one name for some tools.
type Registry struct {
	order   []string
	tools   map[string]registered
	aliases map[string]string
}

type registered struct {
	tool     Tool
	resolved *jsonschema.Resolved
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registered), aliases: make(map[string]string)}
}

// Register adds a tool, resolving its parameter schema once.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	var resolved *jsonschema.Resolved
	if schema := t.Schema(); schema != nil {
		var err error
		resolved, err = schema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("failed to resolve schema for %q: %w", name, err)
		}
	}

	r.order = append(r.order, name)
	r.tools[name] = registered{tool: t, resolved: resolved}
	return nil
}

// RegisterAlias makes alias resolve to an already-registered tool name.
func (r *Registry) RegisterAlias(alias, name string) error {
	if _, exists := r.tools[alias]; exists {
		return fmt.Errorf("tool %q already registered", alias)
	}
	if _, exists := r.aliases[alias]; exists {
		return fmt.Errorf("alias %q already registered", alias)
	}
	if _, ok := r.tools[name]; !ok {
		return fmt.Errorf("alias %q targets unknown tool %q", alias, name)
	}
	r.aliases[alias] = name
	return nil
}

// Lookup returns the tool and its resolved schema, following aliases.
func (r *Registry) Lookup(name string) (Tool, *jsonschema.Resolved, bool) {
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	reg, ok := r.tools[name]
	if !ok {
		return nil, nil, false
	}
	return reg.tool, reg.resolved, true
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// parseParams decodes the raw parameter blob and validates it against the
// tool's schema when one is declared.
func parseParams(raw string, resolved *jsonschema.Resolved) (map[string]any, error) {
	params := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return nil, fmt.Errorf("malformed tool parameters: %w", err)
		}
	}
	if resolved != nil {
		if err := resolved.Validate(params); err != nil {
			return nil, fmt.Errorf("invalid tool parameters: %w", err)
		}
	}
	return params, nil
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func floatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key].(float64)
	return v, ok
}
