package watch

import (
	"testing"

	"github.com/nugget/mqttwatch/internal/config"
	"github.com/nugget/mqttwatch/internal/notify"
	"github.com/nugget/mqttwatch/internal/store"
)

func TestNewSupervisorSkipsDisabledWatches(t *testing.T) {
	cfg := &config.Config{
		WatchList: []config.WatchSpec{
			{ID: "active", Topic: "t/a", Enabled: true},
			{ID: "inactive", Topic: "t/b", Enabled: false},
			{ID: "also-active", Topic: "t/c", Enabled: true},
		},
	}

	s := NewSupervisor(cfg, store.New(), notify.NewDispatcher(nil, nil, nil), nil)

	ws := s.Watchers()
	if len(ws) != 2 {
		t.Fatalf("watchers = %d, want 2", len(ws))
	}
	if ws[0].ID() != "active" || ws[1].ID() != "also-active" {
		t.Errorf("unexpected watcher set: %s, %s", ws[0].ID(), ws[1].ID())
	}
}
