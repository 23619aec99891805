package tooling

import (
	"context"
	"log/slog"
	"time"

	"github.com/novolabs/novo/internal/cache"
)

const (
	processedTTL = 5 * time.Minute
	resultTTL    = 2 * time.Minute
)

// Dispatcher routes tool calls from the voice session to their
// implementations and tracks deferred calls until the browser reports
// their outcome.
type Dispatcher struct {
	registry  *Registry
	pending   *Pending
	quiet     *Quiet
	camera    *Camera
	processed *cache.Cache[struct{}]
	results   *cache.Cache[Result]
}

// NewDispatcher builds a dispatcher over the given registry and shared
// session state.
func NewDispatcher(registry *Registry, pending *Pending, quiet *Quiet, camera *Camera) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		pending:   pending,
		quiet:     quiet,
		camera:    camera,
		processed: cache.New[struct{}](processedTTL),
		results:   cache.New[Result](resultTTL),
	}
}

// Quiet returns the quiet-mode flag shared with the dispatcher.
func (d *Dispatcher) Quiet() *Quiet { return d.quiet }

// Camera returns the camera state shared with the dispatcher.
func (d *Dispatcher) Camera() *Camera { return d.camera }

// Pending returns the deferred-call tracker shared with the dispatcher.
func (d *Dispatcher) Pending() *Pending { return d.pending }

// Dispatch executes a tool call. Unknown tools get a friendly
// acknowledgment so the voice session never stalls, and repeated call
// IDs are suppressed because the voice platform retries deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (Result, error) {
	if call.ID != "" {
		if _, seen := d.processed.Get(call.ID); seen {
			slog.Debug("suppressing duplicate tool call", "id", call.ID, "name", call.Name)
			return Result{Content: "Already on it!"}, nil
		}
		d.processed.Set(call.ID, struct{}{})
	}

	tool, resolved, ok := d.registry.Lookup(call.Name)
	if !ok {
		slog.Warn("unknown tool requested", "name", call.Name)
		return Result{Content: "Okay, done!"}, nil
	}

	params, err := parseParams(call.Parameters, resolved)
	if err != nil {
		return Result{}, newError("invalid_parameters", "Hmm, I didn't quite catch that. Could you say it again?", err)
	}

	result, err := tool.Execute(ctx, params)
	if err != nil {
		slog.Warn("tool execution failed", "name", call.Name, "id", call.ID, "error", err)
		return Result{}, err
	}

	if result.Deferred && call.ID != "" {
		id := call.ID
		d.pending.Register(id, func(final Result) {
			d.results.Set(id, final)
		})
	}
	return result, nil
}

// Complete resolves a deferred call with its final spoken content. The
// result stays retrievable briefly so the session can poll for it.
func (d *Dispatcher) Complete(id string, result Result) bool {
	return d.pending.Complete(id, result)
}

// TakeResult returns and consumes the completion result for a deferred
// call, if one has arrived.
func (d *Dispatcher) TakeResult(id string) (Result, bool) {
	return d.results.Take(id)
}
