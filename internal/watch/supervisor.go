package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/nugget/mqttwatch/internal/config"
	"github.com/nugget/mqttwatch/internal/mqtt"
	"github.com/nugget/mqttwatch/internal/notify"
	"github.com/nugget/mqttwatch/internal/store"
)

// Supervisor owns the watcher set and their broker connections. It
// builds one watcher plus one subscription per enabled watchList
// entry, keeps them running (the MQTT layer reconnects on its own),
// and tears everything down on shutdown or config reload. The global
// store outlives reloads; it is owned by the caller.
type Supervisor struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
	logger     *slog.Logger

	watchers []*Watcher
	conns    []*mqtt.Conn
}

// NewSupervisor builds the watcher set from config. Disabled watch
// entries are skipped with a log line.
func NewSupervisor(cfg *config.Config, st *store.Store, dispatcher *notify.Dispatcher, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{
		store:      st,
		dispatcher: dispatcher,
		logger:     logger,
	}
	for _, spec := range cfg.WatchList {
		if !spec.Enabled {
			logger.Info("skipping disabled watch", "watcher", spec.ID)
			continue
		}
		s.watchers = append(s.watchers, NewWatcher(spec, st, dispatcher, logger, nil))
	}
	return s
}

// Watchers returns the active watcher set.
func (s *Supervisor) Watchers() []*Watcher {
	return s.watchers
}

// Start connects every watcher to the broker and subscribes it to its
// topic. Connections that are not up yet keep retrying in the
// background; Start does not fail on a slow broker.
func (s *Supervisor) Start(ctx context.Context, mqttCfg config.MQTTConfig) error {
	for _, w := range s.watchers {
		conn, err := mqtt.Dial(ctx, mqttCfg, w.ID(), w.Topic(), w.HandleMessage, s.logger)
		if err != nil {
			return err
		}
		s.conns = append(s.conns, conn)
		s.logger.Info("watcher started", "watcher", w.ID(), "topic", w.Topic())
	}
	return nil
}

// Stop disconnects all broker connections and cancels all watcher
// timers. In-flight deliveries are drained by the dispatcher owner.
func (s *Supervisor) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range s.conns {
		if err := c.Close(ctx); err != nil {
			s.logger.Debug("mqtt disconnect", "error", err)
		}
	}
	s.conns = nil
	for _, w := range s.watchers {
		w.Stop()
	}
	s.logger.Info("watchers stopped", "count", len(s.watchers))
}
