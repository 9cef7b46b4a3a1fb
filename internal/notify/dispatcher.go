package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nugget/mqttwatch/internal/config"
)

// MailSender delivers one mail message. Implementations must be safe
// for concurrent use.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one SMS message.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// mailSubject is the fixed subject line for notification mails.
const mailSubject = "Notification Event"

// sendTimeout bounds each outbound mail or SMS delivery.
const sendTimeout = 30 * time.Second

// recipient is one resolved delivery target within a list.
type recipient struct {
	method      string
	address     string
	minSeverity Severity
}

// Dispatcher routes messages to recipient lists keyed by watcher ID.
// The lists are built at startup and read-only afterwards; Send calls
// may run concurrently. Mail and SMS deliveries are offloaded to
// goroutines with a bounded timeout so a slow backend cannot stall the
// watcher pipeline.
type Dispatcher struct {
	lists  map[string][]recipient
	mail   MailSender
	sms    SMSSender
	logger *slog.Logger
	clock  func() time.Time

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher with no recipients. A nil mail or
// SMS sender turns deliveries for that method into logged warnings.
func NewDispatcher(mail MailSender, sms SMSSender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		lists:  make(map[string][]recipient),
		mail:   mail,
		sms:    sms,
		logger: logger,
		clock:  time.Now,
	}
}

// AddRecipient appends a delivery target to a list. method is one of
// LOG, MAIL, SMS; address is empty for LOG.
func (d *Dispatcher) AddRecipient(method, listID, address string, minSeverity Severity) {
	d.lists[listID] = append(d.lists[listID], recipient{
		method:      method,
		address:     address,
		minSeverity: minSeverity,
	})
}

// LoadLists populates the dispatcher from the notificationList config
// section. Disabled recipients are skipped. Recipient types were
// validated at config load.
func (d *Dispatcher) LoadLists(lists []config.NotificationList) {
	for _, list := range lists {
		for _, r := range list.Recipients {
			if !r.Enabled {
				d.logger.Debug("skipping disabled recipient",
					"list", list.ID, "type", r.Type, "recipient", r.Recipient)
				continue
			}
			min, err := ParseSeverity(r.MinSeverity)
			if err != nil {
				min = SeverityInfo
			}
			d.AddRecipient(r.Type, list.ID, r.Recipient, min)
		}
	}
}

// Send delivers a message to every recipient in the list whose
// minimum severity is at or below the message severity.
func (d *Dispatcher) Send(listID, message string, severity Severity) {
	for _, r := range d.lists[listID] {
		if severity < r.minSeverity {
			continue
		}
		d.deliver(r, message)
	}
}

// SendMethods delivers a message to every recipient in the list whose
// method is among those given, ignoring severity.
func (d *Dispatcher) SendMethods(listID, message string, methods ...string) {
	want := make(map[string]bool, len(methods))
	for _, m := range methods {
		want[m] = true
	}
	for _, r := range d.lists[listID] {
		if !want[r.method] {
			continue
		}
		d.deliver(r, message)
	}
}

// Broadcast delivers a message to every recipient in the list.
func (d *Dispatcher) Broadcast(listID, message string) {
	for _, r := range d.lists[listID] {
		d.deliver(r, message)
	}
}

// Wait blocks until all in-flight deliveries finish. Called on
// shutdown; each delivery is already bounded by sendTimeout.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// deliver dispatches one message to one recipient. The message gains a
// local timestamp prefix. Failures are logged and never propagate.
func (d *Dispatcher) deliver(r recipient, message string) {
	stamped := d.clock().Format("2006-01-02 15:04:05") + " " + message

	switch r.method {
	case config.MethodLog:
		d.logger.Info(stamped)

	case config.MethodMail:
		if d.mail == nil {
			d.logger.Warn("mail delivery requested but no mail transport configured",
				"recipient", r.address)
			return
		}
		d.async(func(ctx context.Context) {
			if err := d.mail.Send(ctx, r.address, mailSubject, stamped); err != nil {
				d.logger.Error("mail delivery failed", "recipient", r.address, "error", err)
			}
		})

	case config.MethodSMS:
		if d.sms == nil {
			d.logger.Warn("sms delivery requested but sms is not configured",
				"recipient", r.address)
			return
		}
		d.async(func(ctx context.Context) {
			if err := d.sms.Send(ctx, r.address, stamped); err != nil {
				d.logger.Error("sms delivery failed", "recipient", r.address, "error", err)
			}
		})
	}
}

func (d *Dispatcher) async(fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		fn(ctx)
	}()
}
