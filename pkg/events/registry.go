package events

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/S-Corkum/eventbus/pkg/observability"
)

// metricsSource labels emitted-event metrics from this registry
const metricsSource = "eventbus"

// registration pairs a callback with its identity token
type registration struct {
	sub *Subscription
	cb  Callback
}

// Registry owns the mapping of event name to ordered callback list and
// the set of currently silenced names. The zero value is not usable;
// construct one with NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	records  map[string][]registration
	silenced map[string]struct{}
	global   []registration

	logger    observability.Logger
	metrics   observability.MetricsClient
	startSpan observability.StartSpanFunc
}

// NewRegistry creates a registry. A nil logger or metrics client is
// replaced with a no-op implementation.
func NewRegistry(logger observability.Logger, metrics observability.MetricsClient) *Registry {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	if metrics == nil {
		metrics = observability.NewNoOpMetricsClient()
	}
	return &Registry{
		records:   make(map[string][]registration),
		silenced:  make(map[string]struct{}),
		logger:    logger,
		metrics:   metrics,
		startSpan: observability.StartSpan,
	}
}

// Create ensures an event record exists for name. Calling it for a
// known name is a no-op; existing callbacks are kept.
func (r *Registry) Create(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[name]; exists {
		return
	}
	r.records[name] = []registration{}
	r.logger.Debug("event created", map[string]interface{}{"event_type": name})
}

// Remove deletes the event record for name along with all its
// callbacks. Removing an unknown name is a no-op. The silenced set is
// deliberately left untouched: silencing is independent of record
// existence.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[name]; !exists {
		return
	}
	delete(r.records, name)
	r.logger.Debug("event removed", map[string]interface{}{"event_type": name})
}

// HasEvent reports whether an event record exists for name.
func (r *Registry) HasEvent(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.records[name]
	return exists
}

// Names returns a sorted snapshot of all registered event names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Observe appends cb to the callback list for name and returns its
// subscription token. When no record exists for name the result depends
// on autoCreate: true creates the record first, false registers nothing
// and returns nil. A nil callback is never registered.
func (r *Registry) Observe(name string, cb Callback, autoCreate bool) *Subscription {
	if cb == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[name]; !exists {
		if !autoCreate {
			r.logger.Debug("observe skipped, event not registered", map[string]interface{}{"event_type": name})
			return nil
		}
		r.records[name] = []registration{}
	}

	sub := &Subscription{
		ID:        uuid.New().String(),
		EventName: name,
		registry:  r,
	}
	r.records[name] = append(r.records[name], registration{sub: sub, cb: cb})
	r.logger.Debug("callback subscribed", map[string]interface{}{
		"event_type":      name,
		"subscription_id": sub.ID,
	})
	return sub
}

// ObserveAll registers cb for every emission delivered by the registry,
// regardless of name. Global callbacks run after the named callbacks of
// the emitted event.
func (r *Registry) ObserveAll(cb Callback) *Subscription {
	if cb == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sub := &Subscription{
		ID:       uuid.New().String(),
		registry: r,
		global:   true,
	}
	r.global = append(r.global, registration{sub: sub, cb: cb})
	r.logger.Debug("global callback subscribed", map[string]interface{}{"subscription_id": sub.ID})
	return sub
}

// Unobserve removes every callback registered under name whose token is
// sub, preserving the order of the survivors. It returns false when no
// record exists for name and true otherwise, whether or not anything
// matched.
func (r *Registry) Unobserve(name string, sub *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs, exists := r.records[name]
	if !exists {
		return false
	}
	if sub == nil {
		return true
	}

	filtered := make([]registration, 0, len(regs))
	for _, reg := range regs {
		if reg.sub != sub {
			filtered = append(filtered, reg)
		}
	}
	if len(filtered) != len(regs) {
		r.logger.Debug("callback unsubscribed", map[string]interface{}{
			"event_type":      name,
			"subscription_id": sub.ID,
		})
	}
	r.records[name] = filtered
	return true
}

// UnobserveAll removes a global subscription registered via ObserveAll.
// It reports whether the subscription was found.
func (r *Registry) UnobserveAll(sub *Subscription) bool {
	if sub == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := make([]registration, 0, len(r.global))
	for _, reg := range r.global {
		if reg.sub != sub {
			filtered = append(filtered, reg)
		}
	}
	removed := len(filtered) != len(r.global)
	r.global = filtered
	return removed
}

// Emit constructs an event for name carrying data and delivers it to
// every registered callback in subscription order. Emitting an unknown
// or silenced name is a silent no-op; an unknown name is never
// auto-created. A nil data payload is delivered as an empty map.
//
// Callback errors do not stop the remaining callbacks; every callback
// runs, each error is logged and counted, and the first one is returned
// after dispatch completes.
func (r *Registry) Emit(ctx context.Context, name string, data interface{}) error {
	return r.EmitEvent(ctx, NewEvent(name, data))
}

// EmitEvent delivers an already-constructed event. Events with an empty
// type are rejected with a warning.
func (r *Registry) EmitEvent(ctx context.Context, evt *Event) error {
	if evt == nil || evt.Type == "" {
		r.logger.Warn("event emitted with empty type", nil)
		return nil
	}
	if evt.Args == nil {
		evt.Args = make(map[string]interface{})
	}

	r.mu.RLock()
	regs, exists := r.records[evt.Type]
	_, muted := r.silenced[evt.Type]
	snapshot := make([]registration, 0, len(regs)+len(r.global))
	snapshot = append(snapshot, regs...)
	snapshot = append(snapshot, r.global...)
	r.mu.RUnlock()

	if muted {
		r.metrics.RecordCounter("events_silenced_total", 1, map[string]string{"event_type": evt.Type})
		r.logger.Debug("emit dropped, event silenced", map[string]interface{}{"event_type": evt.Type})
		return nil
	}
	if !exists {
		r.logger.Debug("emit skipped, event not registered", map[string]interface{}{"event_type": evt.Type})
		return nil
	}

	ctx, span := r.startSpan(ctx, "event.emit")
	span.SetAttribute("event.type", evt.Type)
	span.SetAttribute("event.id", evt.ID)
	span.SetAttribute("event.subscribers", len(snapshot))
	defer span.End()

	stop := r.metrics.StartTimer("emit_duration_seconds", map[string]string{"event_type": evt.Type})
	defer stop()

	var firstErr error
	for _, reg := range snapshot {
		status := "success"
		if err := reg.cb(ctx, evt.Type, evt); err != nil {
			status = "error"
			span.RecordError(err)
			r.logger.Error("event callback failed", map[string]interface{}{
				"event_type":      evt.Type,
				"subscription_id": reg.sub.ID,
				"error":           err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
		r.metrics.RecordCounter("event_callbacks_total", 1, map[string]string{
			"event_type": evt.Type,
			"status":     status,
		})
	}

	r.metrics.RecordEvent(metricsSource, evt.Type)
	return firstErr
}

// Silence suppresses delivery for name until Unsilence is called.
// Silencing is idempotent and independent of record existence. It
// returns the resulting membership, which is always true.
func (r *Registry) Silence(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.silenced[name] = struct{}{}
	return true
}

// SilenceDuring silences name around a single call to fn and lifts the
// silencing afterwards no matter how fn returns, including by panic.
// It returns the final silenced state of name, which is always false,
// together with fn's error.
func (r *Registry) SilenceDuring(name string, fn func() error) (silenced bool, err error) {
	r.Silence(name)
	defer func() {
		r.Unsilence(name)
		silenced = r.IsSilenced(name)
	}()

	if fn == nil {
		return
	}
	err = fn()
	return
}

// Unsilence resumes delivery for name. Unsilencing a name that is not
// silenced is a no-op.
func (r *Registry) Unsilence(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.silenced, name)
}

// IsSilenced reports whether name is currently silenced.
func (r *Registry) IsSilenced(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, muted := r.silenced[name]
	return muted
}
