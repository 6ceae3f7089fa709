package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kilianp07/sortie/core/events"
	"github.com/kilianp07/sortie/infra/logger"
	"github.com/kilianp07/sortie/internal/eventbus"
)

// Publisher sends raw payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Notifier publishes roster events as JSON under a topic prefix.
type Notifier struct {
	pub    Publisher
	prefix string
	log    logger.Logger
}

// NewNotifier returns a notifier publishing to <prefix>/roster/<week>/<kind>.
func NewNotifier(pub Publisher, prefix string) *Notifier {
	return &Notifier{pub: pub, prefix: strings.TrimSuffix(prefix, "/"), log: logger.New("roster-notifier")}
}

// Notify publishes one event.
func (n *Notifier) Notify(ev events.RosterEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	topic := ev.Topic()
	if n.prefix != "" {
		topic = n.prefix + "/" + topic
	}
	return n.pub.Publish(topic, payload)
}

// Start forwards bus events until the bus is closed. The returned channel is
// closed after the last buffered event has been published.
func (n *Notifier) Start(bus *eventbus.TypedBus[events.RosterEvent]) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		for ev := range sub {
			if err := n.Notify(ev); err != nil {
				n.log.Warnf("notify %s v%d: %v", ev.WeekStart, ev.Version, err)
			}
		}
	}()
	return done
}

// Message is a payload captured by MemoryPublisher.
type Message struct {
	Topic   string
	Payload []byte
}

// MemoryPublisher records messages in memory. Topics listed in Fail return
// an error.
type MemoryPublisher struct {
	mu       sync.Mutex
	Messages []Message
	Fail     map[string]bool
}

// NewMemoryPublisher creates an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{Fail: make(map[string]bool)}
}

func (m *MemoryPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail[topic] {
		return fmt.Errorf("publish failed")
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// Snapshot returns a copy of the recorded messages.
func (m *MemoryPublisher) Snapshot() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}
