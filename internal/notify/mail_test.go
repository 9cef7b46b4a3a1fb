package notify

import (
	"strings"
	"testing"

	"github.com/nugget/mqttwatch/internal/config"
)

func TestComposeMessage(t *testing.T) {
	cfg := config.MailConfig{From: "alerts@example.com", Name: "MQTT Watch"}
	msg := string(composeMessage(cfg, "ops@example.com", "Notification Event", "disk full"))

	for _, want := range []string{
		"From: MQTT Watch <alerts@example.com>\r\n",
		"To: ops@example.com\r\n",
		"Subject: Notification Event\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
		"\r\n\r\ndisk full\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q\nGot:\n%s", want, msg)
		}
	}
}

func TestComposeMessageWithoutDisplayName(t *testing.T) {
	cfg := config.MailConfig{From: "alerts@example.com"}
	msg := string(composeMessage(cfg, "ops@example.com", "s", "b"))

	if !strings.Contains(msg, "From: alerts@example.com\r\n") {
		t.Errorf("bare From header expected\nGot:\n%s", msg)
	}
	if strings.Contains(msg, "<") {
		t.Errorf("no angle brackets expected without display name\nGot:\n%s", msg)
	}
}
