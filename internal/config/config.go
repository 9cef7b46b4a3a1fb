// Package config handles mqttwatch configuration loading.
//
// The configuration is a single document located by the CONFIG_FILE
// environment variable, falling back to config.json next to the
// executable. The document is JSON; because JSON is a subset of YAML
// the loader accepts YAML as well.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Recipient delivery methods.
const (
	MethodLog  = "LOG"
	MethodMail = "MAIL"
	MethodSMS  = "SMS"
)

// Edge modes for a condition's match predicate.
const (
	EdgeLevel  = "level"
	EdgeRising = "rising"
)

// Config holds the full mqttwatch configuration document.
type Config struct {
	MQTT             MQTTConfig           `yaml:"mqtt"`
	MessageService   MessageServiceConfig `yaml:"messageService"`
	WatchList        []WatchSpec          `yaml:"watchList"`
	NotificationList []NotificationList   `yaml:"notificationList"`
	Metrics          MetricsConfig        `yaml:"metrics"`
	LogLevel         string               `yaml:"logLevel"`
}

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MessageServiceConfig groups the outbound delivery backends.
type MessageServiceConfig struct {
	Mail MailConfig `yaml:"mail"`
	SMS  SMSConfig  `yaml:"sms"`
}

// MailConfig holds SMTP transport settings.
type MailConfig struct {
	Host       string     `yaml:"host"`
	Port       int        `yaml:"port"`
	From       string     `yaml:"from"`
	IgnoreTLS  bool       `yaml:"ignoreTLS"`
	RequireTLS bool       `yaml:"requireTLS"`
	Name       string     `yaml:"name"`
	TLS        TLSConfig  `yaml:"tls"`
	Auth       AuthConfig `yaml:"auth"`
}

// TLSConfig tunes TLS verification for SMTP.
type TLSConfig struct {
	ServerName         string `yaml:"servername"`
	RejectUnauthorized *bool  `yaml:"rejectUnauthorized"`
}

// AuthConfig holds SMTP credentials.
type AuthConfig struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// SMSConfig holds SMS gateway credentials. SMS is optional: when
// disabled or missing credentials, SMS dispatches log a warning and
// return.
type SMSConfig struct {
	Enabled *bool  `yaml:"enabled"`
	SID     string `yaml:"sid"`
	Token   string `yaml:"token"`
	Service string `yaml:"service"`
}

// Available reports whether SMS sending is configured and enabled.
func (s SMSConfig) Available() bool {
	if s.Enabled != nil && !*s.Enabled {
		return false
	}
	return s.SID != "" && s.Token != ""
}

// MetricsConfig enables the optional Prometheus /metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// WatchSpec binds one MQTT topic (wildcards allowed) to a rule list.
type WatchSpec struct {
	ID      string      `yaml:"id"`
	Topic   string      `yaml:"topic"`
	Enabled bool        `yaml:"enabled"`
	Dynamic bool        `yaml:"dynamic"`
	Events  []EventSpec `yaml:"events"`
}

// EventSpec is a rule group keyed by one subject (a dotted path into
// the payload).
type EventSpec struct {
	Subject      string           `yaml:"subject"`
	Default      any              `yaml:"default"`
	ActiveHours  []TimeRange      `yaml:"activeHours"`
	Dependencies []DependencySpec `yaml:"dependencies"`
	Dynamic      bool             `yaml:"dynamic"`
	StateKey     string           `yaml:"stateKey"`
	Conditions   []ConditionSpec  `yaml:"conditions"`
}

// TimeRange is a local-time window in HH:MM notation. When From is
// later than To the range wraps midnight.
type TimeRange struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DependencySpec gates an event on another watcher's last observation.
// Path must be exactly "<watchId>.<subject>".
type DependencySpec struct {
	Path  string `yaml:"path"`
	State any    `yaml:"state"`
}

// ConditionSpec is one matcher within an event: either a typed
// equality against Value or an expression string in Condition.
type ConditionSpec struct {
	Value            any    `yaml:"value"`
	Condition        string `yaml:"condition"`
	Log              string `yaml:"log"`
	Message          string `yaml:"message"`
	Severity         string `yaml:"severity"`
	Edge             string `yaml:"edge"`
	CooldownSec      int    `yaml:"cooldownSec"`
	Key              string `yaml:"key"`
	WarningThreshold int    `yaml:"warningThreshold"`
	WarningMessage   string `yaml:"warningMessage"`
	WarningSeverity  string `yaml:"warningSeverity"`
	Reset            int    `yaml:"reset"`
}

// NotificationList names the recipients for one watcher ID.
type NotificationList struct {
	ID         string      `yaml:"id"`
	Recipients []Recipient `yaml:"recipients"`
}

// Recipient is a single delivery target.
type Recipient struct {
	Type        string `yaml:"type"`
	Recipient   string `yaml:"recipient"`
	Enabled     bool   `yaml:"enabled"`
	MinSeverity string `yaml:"minSeverity"`
}

// DefaultPath returns the config file location: $CONFIG_FILE if set,
// otherwise config.json next to the executable.
func DefaultPath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(filepath.Dir(exe), "config.json")
}

// Load reads, parses and validates the configuration document. The
// document is taken literally: ${...} sequences are rule templates,
// not environment references, so no expansion happens here.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills the per-condition and per-recipient defaults the
// document may omit.
func (c *Config) applyDefaults() {
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		c.Metrics.Address = ":9641"
	}
	for wi := range c.WatchList {
		w := &c.WatchList[wi]
		for ei := range w.Events {
			e := &w.Events[ei]
			for ci := range e.Conditions {
				cond := &e.Conditions[ci]
				if cond.Severity == "" {
					cond.Severity = "info"
				}
				if cond.Edge == "" {
					cond.Edge = EdgeLevel
				}
				if cond.WarningSeverity == "" {
					cond.WarningSeverity = "warning"
				}
			}
		}
	}
	for li := range c.NotificationList {
		for ri := range c.NotificationList[li].Recipients {
			r := &c.NotificationList[li].Recipients[ri]
			if r.MinSeverity == "" {
				r.MinSeverity = "info"
			}
		}
	}
}

// Validate checks the structural requirements: watchList and
// notificationList must be present lists, recipient types must be
// known, and rule fields must use recognized enumerations. Any failure
// here is fatal at startup.
func (c *Config) Validate() error {
	if c.WatchList == nil {
		return fmt.Errorf("configuration error: watchList is missing or not a list")
	}
	if c.NotificationList == nil {
		return fmt.Errorf("configuration error: notificationList is missing or not a list")
	}

	for _, w := range c.WatchList {
		if w.ID == "" {
			return fmt.Errorf("configuration error: watch entry without id")
		}
		if w.Topic == "" {
			return fmt.Errorf("configuration error: watch %q has no topic", w.ID)
		}
		for _, e := range w.Events {
			if e.Subject == "" {
				return fmt.Errorf("configuration error: watch %q has an event without subject", w.ID)
			}
			for i, cond := range e.Conditions {
				if cond.Edge != EdgeLevel && cond.Edge != EdgeRising {
					return fmt.Errorf("configuration error: watch %q %s condition %d: unknown edge %q",
						w.ID, e.Subject, i, cond.Edge)
				}
				if !validSeverity(cond.Severity) {
					return fmt.Errorf("configuration error: watch %q %s condition %d: unknown severity %q",
						w.ID, e.Subject, i, cond.Severity)
				}
				if !validSeverity(cond.WarningSeverity) {
					return fmt.Errorf("configuration error: watch %q %s condition %d: unknown warningSeverity %q",
						w.ID, e.Subject, i, cond.WarningSeverity)
				}
				if cond.CooldownSec < 0 {
					return fmt.Errorf("configuration error: watch %q %s condition %d: negative cooldownSec",
						w.ID, e.Subject, i)
				}
			}
		}
	}

	for _, list := range c.NotificationList {
		if list.ID == "" {
			return fmt.Errorf("configuration error: notification list without id")
		}
		for _, r := range list.Recipients {
			switch r.Type {
			case MethodLog, MethodMail, MethodSMS:
			default:
				return fmt.Errorf("configuration error: notification list %q: unknown recipient type %q",
					list.ID, r.Type)
			}
			if !validSeverity(r.MinSeverity) {
				return fmt.Errorf("configuration error: notification list %q: unknown minSeverity %q",
					list.ID, r.MinSeverity)
			}
		}
	}
	return nil
}

func validSeverity(s string) bool {
	switch s {
	case "debug", "info", "warning", "critical":
		return true
	}
	return false
}
