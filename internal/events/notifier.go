// Package events reports the outcome of background save work to
// subscribers over NATS.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pixil98/go-savestate/internal/storage"
)

const (
	DefaultSubjectPrefix = "savestate"
)

// Publisher sends raw messages to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// SaveEvent is the message published for each finished save request.
type SaveEvent struct {
	Slot       string    `json:"slot"`
	Op         string    `json:"op"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	Bytes      int       `json:"bytes"`
	FinishedAt time.Time `json:"finished_at"`
}

// Notifier publishes pipeline results. Successes go to <prefix>.completed
// and failures to <prefix>.failed.
type Notifier struct {
	pub    Publisher
	prefix string
}

func NewNotifier(pub Publisher, prefix string) *Notifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Notifier{pub: pub, prefix: prefix}
}

func (n *Notifier) CompletedSubject() string {
	return n.prefix + ".completed"
}

func (n *Notifier) FailedSubject() string {
	return n.prefix + ".failed"
}

// Notify publishes res. Publishing problems are logged and otherwise
// ignored so that reporting never affects the save itself.
func (n *Notifier) Notify(res storage.Result) {
	ev := SaveEvent{
		Slot:       res.Slot,
		Op:         res.Op.String(),
		OK:         res.Err == nil,
		Bytes:      res.Bytes,
		FinishedAt: res.FinishedAt,
	}
	subject := n.CompletedSubject()
	if res.Err != nil {
		ev.Error = res.Err.Error()
		subject = n.FailedSubject()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("marshalling save event", "error", err)
		return
	}
	if err := n.pub.Publish(subject, data); err != nil {
		slog.Warn("publishing save event", "subject", subject, "error", err)
	}
}
