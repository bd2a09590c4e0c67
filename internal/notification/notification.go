// Package notification queues account emails on pgmq and renders them for
// delivery by the notification orchestrator.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"
)

// Job kinds.
const (
	KindPaymentFailed         = "payment_failed"
	KindSubscriptionCancelled = "subscription_cancelled"
)

// Job is the queue payload.
type Job struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Plan      string    `json:"plan,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier hands jobs off for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, job Job) error
}

// Sender is the subset of the pgmq client the notifier needs.
type Sender interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

type queueNotifier struct {
	queue Sender
	name  string
}

func NewQueueNotifier(queue Sender, queueName string) Notifier {
	return &queueNotifier{queue: queue, name: queueName}
}

func (n *queueNotifier) Notify(ctx context.Context, job Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal notification job: %w", err)
	}
	if err := n.queue.Send(ctx, n.name, payload); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", job.Kind, err)
	}
	return nil
}

var templates = map[string]struct {
	subject string
	body    *template.Template
}{
	KindPaymentFailed: {
		subject: "Action needed: your payment did not go through",
		body: template.Must(template.New(KindPaymentFailed).Parse(`<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>We could not charge your card for your {{.Plan}} subscription. Please update your payment details to keep your monthly words.</p>`)),
	},
	KindSubscriptionCancelled: {
		subject: "Your subscription has been cancelled",
		body: template.Must(template.New(KindSubscriptionCancelled).Parse(`<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>Your {{.Plan}} subscription is now {{.Status}}. Any extra words you purchased remain available.</p>`)),
	},
}

// Render returns the subject and HTML body for job.
func Render(job Job) (string, string, error) {
	tpl, ok := templates[job.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", job.Kind)
	}
	var body bytes.Buffer
	if err := tpl.body.Execute(&body, job); err != nil {
		return "", "", fmt.Errorf("render %s notification: %w", job.Kind, err)
	}
	return tpl.subject, body.String(), nil
}
