// Package mail defines the notification collaborator the engine consumes.
// Transport, retry, and backoff policy belong to the implementation behind
// the interface, not to the engine: a send either succeeds or fails
// synchronously.
package mail

import (
	"context"
	"sync"

	"github.com/arthur-debert/automat/pkg/logging"
)

// Message is one outbound notification
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers notifications
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
// Useful for local runs without a mail transport.
type LogSender struct{}

var _ Sender = LogSender{}

// Send logs the message and reports success
func (LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := logging.GetLogger("mail")
	logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Mail send (log transport)")
	return nil
}

// Recorder captures sent messages for tests. A non-nil Err makes every
// send fail with it, for failure injection.
type Recorder struct {
	mu   sync.Mutex
	Err  error
	sent []Message
}

var _ Sender = (*Recorder)(nil)

// Send records the message, or fails with the configured error
func (r *Recorder) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns the captured messages in send order
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.sent))
	copy(out, r.sent)
	return out
}
