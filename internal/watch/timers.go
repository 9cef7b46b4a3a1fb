package watch

import (
	"time"

	"github.com/nugget/mqttwatch/internal/config"
	"github.com/nugget/mqttwatch/internal/expr"
	"github.com/nugget/mqttwatch/internal/notify"
)

// warningTimer is an armed warning with its message and value snapshot
// taken at arm time. Firing never re-reads payload state.
type warningTimer struct {
	timer    *time.Timer
	value    string
	message  string
	severity notify.Severity
	subject  string
}

// updateWarningTimer re-evaluates the warning timer after a matching
// legacy evaluation. A positive threshold arms a timer when none is
// armed; a missing or non-positive threshold clears any armed timer
// and resets the fired flag. At most one warning timer per bucket.
func (w *Watcher) updateWarningTimer(e *config.EventSpec, cond *config.ConditionSpec, bucket *eventStatus, valueStr string, env expr.Env) {
	if cond.WarningThreshold <= 0 {
		if bucket.warning != nil {
			bucket.warning.timer.Stop()
			bucket.warning = nil
		}
		bucket.warningFired = false
		return
	}

	if bucket.warning != nil {
		return
	}

	msg, err := expr.InterpolateString(cond.WarningMessage, env)
	if err != nil {
		w.logger.Warn("warning message interpolation failed", "subject", e.Subject, "error", err)
	}
	sev, _ := notify.ParseSeverity(cond.WarningSeverity)

	wt := &warningTimer{
		value:    valueStr,
		message:  msg,
		severity: sev,
		subject:  e.Subject,
	}
	wt.timer = time.AfterFunc(time.Duration(cond.WarningThreshold)*time.Second, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.fireWarning(bucket, wt)
	})
	bucket.warning = wt
	w.logger.Debug("warning timer armed",
		"subject", e.Subject, "threshold_sec", cond.WarningThreshold, "value", valueStr)
}

// fireWarning runs under the watcher mutex when a warning timer
// expires. The warning is sent only when it has not fired before and
// the bucket still holds the value captured at arm time.
func (w *Watcher) fireWarning(bucket *eventStatus, wt *warningTimer) {
	if bucket.warning != wt {
		// Cleared or superseded between firing and acquiring the lock.
		return
	}
	if !bucket.warningFired && bucket.lastValue == wt.value {
		w.send(wt.message, wt.severity)
	} else {
		w.logger.Info("warning no longer valid",
			"subject", wt.subject, "armed_value", wt.value, "current_value", bucket.lastValue)
	}
	bucket.warningFired = true
}

// updateResetTimer re-evaluates the reset timer after a matching
// legacy evaluation: any armed timer is cleared, and a positive reset
// arms a fresh one that restores the bucket to the event default.
func (w *Watcher) updateResetTimer(e *config.EventSpec, cond *config.ConditionSpec, bucket *eventStatus) {
	if bucket.resetTimer != nil {
		bucket.resetTimer.Stop()
		bucket.resetTimer = nil
	}
	if cond.Reset <= 0 {
		return
	}

	def := expr.Stringify(e.Default)
	subject := e.Subject
	var t *time.Timer
	t = time.AfterFunc(time.Duration(cond.Reset)*time.Second, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if bucket.resetTimer != t {
			return
		}
		bucket.resetTimer = nil
		bucket.lastValue = def
		w.logger.Debug("reset timer fired, bucket restored to default",
			"subject", subject, "default", def)
	})
	bucket.resetTimer = t
	w.logger.Debug("reset timer armed", "subject", subject, "reset_sec", cond.Reset)
}
