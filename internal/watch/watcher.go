// Package watch implements the per-topic rule pipeline: payload
// decoding, gating (active hours, cross-watcher dependencies),
// condition evaluation, edge/cooldown and duplicate suppression,
// warning/reset timers, and notification dispatch.
//
// Each watcher serializes its own work with one mutex held across
// every pipeline invocation and every timer callback, so bucket and
// condition state always advances in message-delivery order. The
// global store is the only state shared across watchers.
package watch

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nugget/mqttwatch/internal/config"
	"github.com/nugget/mqttwatch/internal/expr"
	"github.com/nugget/mqttwatch/internal/metrics"
	"github.com/nugget/mqttwatch/internal/notify"
	"github.com/nugget/mqttwatch/internal/store"
)

// Dispatcher is the notification fan-out the watcher drives. Satisfied
// by *notify.Dispatcher; narrowed to an interface for tests.
type Dispatcher interface {
	Send(listID, message string, severity notify.Severity)
}

// eventStatus is the runtime bucket for one stateful event (one per
// state key). Dynamic events never allocate buckets.
type eventStatus struct {
	lastValue        string
	lastHandledValue *string
	warning          *warningTimer
	resetTimer       *time.Timer
	warningFired     bool
}

// Watcher binds one MQTT topic to its rule list and owns all the
// mutable state those rules need.
type Watcher struct {
	id         string
	topic      string
	dynamic    bool
	events     []config.EventSpec
	store      *store.Store
	dispatcher Dispatcher
	logger     *slog.Logger
	clock      Clock

	mu      sync.Mutex
	buckets map[string]*eventStatus
	sup     *suppressor
}

// NewWatcher builds a watcher from its config entry. Legacy events
// (not dynamic, no stateKey) get their single bucket up front, seeded
// from the event default; everything else allocates lazily.
func NewWatcher(spec config.WatchSpec, st *store.Store, dispatcher Dispatcher, logger *slog.Logger, clock Clock) *Watcher {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		id:         spec.ID,
		topic:      spec.Topic,
		dynamic:    spec.Dynamic,
		events:     spec.Events,
		store:      st,
		dispatcher: dispatcher,
		logger:     logger.With("watcher", spec.ID),
		buckets:    make(map[string]*eventStatus),
		sup:        newSuppressor(clock),
		clock:      clock,
	}

	for i := range w.events {
		e := &w.events[i]
		if w.eventDynamic(e) || e.StateKey != "" {
			continue
		}
		w.buckets[e.Subject] = &eventStatus{lastValue: expr.Stringify(e.Default)}
		w.store.Update(w.id, e.Subject, e.Default)
	}
	return w
}

// ID returns the watcher's configured id.
func (w *Watcher) ID() string { return w.id }

// Topic returns the subscribed MQTT topic (wildcards allowed).
func (w *Watcher) Topic() string { return w.topic }

// Stop cancels all armed timers. Called on shutdown and reload.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.buckets {
		if b.warning != nil {
			b.warning.timer.Stop()
			b.warning = nil
		}
		if b.resetTimer != nil {
			b.resetTimer.Stop()
			b.resetTimer = nil
		}
	}
}

// HandleMessage runs the full pipeline for one delivered MQTT message.
// It never panics and never returns an error: malformed payloads are
// dropped, malformed rules evaluate to no match.
func (w *Watcher) HandleMessage(topic string, payload []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	metrics.MessagesTotal.WithLabelValues(w.id).Inc()

	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		metrics.DecodeErrorsTotal.WithLabelValues(w.id).Inc()
		w.logger.Debug("dropping payload that is not valid JSON",
			"topic", topic, "size", len(payload), "error", err)
		return
	}

	for i := range w.events {
		w.processEvent(&w.events[i], doc)
	}
}

// eventDynamic reports whether an event runs in dynamic mode (no
// bucket, no store writes): either the watch or the event declares it.
func (w *Watcher) eventDynamic(e *config.EventSpec) bool {
	return w.dynamic || e.Dynamic
}

// processEvent drives steps (a)–(f) of the pipeline for one event.
func (w *Watcher) processEvent(e *config.EventSpec, doc map[string]any) {
	raw := expr.LookupPath(doc, e.Subject)
	if expr.IsUndefined(raw) {
		return
	}

	active, err := withinActiveHours(e.ActiveHours, w.clock())
	if err != nil {
		w.logger.Warn("malformed activeHours range", "subject", e.Subject, "error", err)
	}
	if !active {
		w.logger.Debug("outside active hours", "subject", e.Subject)
		return
	}

	if !w.dependenciesSatisfied(e) {
		return
	}

	valueStr := expr.Stringify(raw)
	env := expr.Env{Payload: doc, Value: raw, Store: w.store}

	dynamic := w.eventDynamic(e)
	var bucket *eventStatus
	if !dynamic {
		key := w.statusKey(e, env)
		bucket = w.buckets[key]
		if bucket == nil {
			bucket = &eventStatus{lastValue: expr.Stringify(e.Default)}
			w.buckets[key] = bucket
			w.store.Update(w.id, e.Subject, e.Default)
		}
		w.store.Update(w.id, e.Subject, valueStr)
	}

	for i := range e.Conditions {
		w.processCondition(e, &e.Conditions[i], i, raw, valueStr, bucket, env, dynamic)
	}

	if !dynamic {
		bucket.lastValue = valueStr
	}
}

// statusKey computes the bucket key: the interpolated stateKey plus
// the subject when a stateKey is declared, otherwise the subject.
func (w *Watcher) statusKey(e *config.EventSpec, env expr.Env) string {
	if e.StateKey == "" {
		return e.Subject
	}
	k, err := expr.InterpolateString(e.StateKey, env)
	if err != nil {
		w.logger.Warn("stateKey interpolation failed", "subject", e.Subject, "error", err)
	}
	return k + "::" + e.Subject
}

// dependenciesSatisfied applies the dependency gate: every declared
// dependency must name an existing store entry whose normalized value
// equals the declared state. A path that is not exactly
// "<watchId>.<subject>" is a warning and gates the event out.
func (w *Watcher) dependenciesSatisfied(e *config.EventSpec) bool {
	for _, dep := range e.Dependencies {
		parts := strings.Split(dep.Path, ".")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			w.logger.Warn("malformed dependency path, want <watchId>.<subject>",
				"subject", e.Subject, "path", dep.Path)
			return false
		}
		v, ok := w.store.Get(parts[0], parts[1])
		if !ok {
			w.logger.Debug("dependency has no recorded value",
				"subject", e.Subject, "path", dep.Path)
			return false
		}
		if !expr.Equal(v, dep.State) {
			w.logger.Debug("dependency not satisfied",
				"subject", e.Subject, "path", dep.Path,
				"want", dep.State, "have", v)
			return false
		}
	}
	return true
}

// processCondition evaluates one condition and, on a permitted match,
// dispatches its notification.
func (w *Watcher) processCondition(e *config.EventSpec, cond *config.ConditionSpec, idx int, raw any, valueStr string, bucket *eventStatus, env expr.Env, dynamic bool) {
	matched := w.conditionMatches(e, cond, raw, env)

	srcKey := w.sourceKey(e, cond, env)
	id := stateID(w.id, e.Subject, idx, srcKey)

	if !matched {
		if cond.Edge == config.EdgeRising {
			w.sup.markNotMatched(id)
		}
		return
	}

	if cond.Log != "" {
		line, err := expr.InterpolateString(cond.Log, env)
		if err != nil {
			w.logger.Warn("log template interpolation failed", "subject", e.Subject, "error", err)
		}
		w.logger.Info(line, "subject", e.Subject)
	}

	rising := cond.Edge == config.EdgeRising
	cooldown := time.Duration(cond.CooldownSec) * time.Second
	allowed, reason := w.sup.shouldNotify(id, rising, cooldown)
	if !allowed {
		metrics.SuppressedTotal.WithLabelValues(w.id, reason).Inc()
		w.logger.Debug("notification suppressed",
			"subject", e.Subject, "condition", idx, "reason", reason, "key", srcKey)
		return
	}

	sev, _ := notify.ParseSeverity(cond.Severity)
	msg, err := expr.InterpolateString(cond.Message, env)
	if err != nil {
		w.logger.Warn("message template interpolation failed", "subject", e.Subject, "error", err)
	}

	if dynamic {
		w.send(msg, sev)
		return
	}

	// The two suppression regimes are mutually exclusive: declaring a
	// rising edge or a positive cooldown turns off legacy duplicate
	// suppression and its timers for this condition.
	if rising || cond.CooldownSec > 0 {
		w.send(msg, sev)
		return
	}

	if bucket.lastValue != valueStr {
		w.send(msg, sev)
		handled := valueStr
		bucket.lastHandledValue = &handled
	} else {
		metrics.SuppressedTotal.WithLabelValues(w.id, reasonDuplicate).Inc()
		w.logger.Debug("duplicate value, notification suppressed",
			"subject", e.Subject, "value", valueStr)
	}

	w.updateWarningTimer(e, cond, bucket, valueStr, env)
	w.updateResetTimer(e, cond, bucket)
}

// conditionMatches evaluates the matcher: an expression when declared,
// otherwise typed equality against the condition value.
func (w *Watcher) conditionMatches(e *config.EventSpec, cond *config.ConditionSpec, raw any, env expr.Env) bool {
	if cond.Condition != "" {
		ok, err := expr.Evaluate(cond.Condition, env)
		if err != nil {
			metrics.ExpressionErrorsTotal.WithLabelValues(w.id).Inc()
			w.logger.Warn("rule expression failed, treating as no match",
				"subject", e.Subject, "error", err)
			return false
		}
		return ok
	}
	return typedEqual(cond.Value, raw)
}

// typedEqual compares the declared condition value against the
// extracted subject value: null always matches, booleans compare the
// normalized or cast value, numbers and strings cast then compare.
func typedEqual(want, raw any) bool {
	switch wv := want.(type) {
	case nil:
		return true
	case bool:
		n := expr.Normalize(raw)
		if b, ok := n.(bool); ok {
			return b == wv
		}
		return expr.Truthy(n) == wv
	case int, int64, float64:
		wantF, _ := expr.ToNumber(wv)
		gotF, ok := expr.ToNumber(raw)
		return ok && gotF == wantF
	case string:
		return expr.Stringify(raw) == wv
	default:
		return false
	}
}

// sourceKey computes the suppression partition key for one condition:
// the condition key template, else the event stateKey template, else
// tags.host:tags.path when both exist, else the subject.
func (w *Watcher) sourceKey(e *config.EventSpec, cond *config.ConditionSpec, env expr.Env) string {
	if cond.Key != "" {
		k, err := expr.InterpolateString(cond.Key, env)
		if err != nil {
			w.logger.Warn("condition key interpolation failed", "subject", e.Subject, "error", err)
		}
		return k
	}
	if e.StateKey != "" {
		k, err := expr.InterpolateString(e.StateKey, env)
		if err != nil {
			w.logger.Warn("stateKey interpolation failed", "subject", e.Subject, "error", err)
		}
		return k
	}
	host := expr.LookupPath(env.Payload, "tags.host")
	path := expr.LookupPath(env.Payload, "tags.path")
	if !expr.IsUndefined(host) && !expr.IsUndefined(path) {
		return expr.Stringify(host) + ":" + expr.Stringify(path)
	}
	return e.Subject
}

func (w *Watcher) send(msg string, sev notify.Severity) {
	metrics.NotificationsTotal.WithLabelValues(w.id, sev.String()).Inc()
	w.dispatcher.Send(w.id, msg, sev)
}
