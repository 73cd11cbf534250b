package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// DefaultSubjectPrefix is prepended to the event kind to form the subject
const DefaultSubjectPrefix = "callpersona"

// Publisher is the part of *nats.Conn the observer needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSObserver publishes every event as JSON on <prefix>.<tenant>.<kind>
type NATSObserver struct {
	pub    Publisher
	prefix string
}

// NewNATSObserver wraps an existing publisher
func NewNATSObserver(pub Publisher, prefix string) *NATSObserver {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSObserver{pub: pub, prefix: prefix}
}

// ConnectNATS dials the given server URLs (comma separated)
func ConnectNATS(url string, timeout time.Duration) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("no NATS url configured")
	}
	conn, err := nats.Connect(url,
		nats.Name("callpersona"),
		nats.Timeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	log.Info().Str("url", url).Msg("Connected to NATS")
	return conn, nil
}

// Subject returns the subject an event is published on
func (o *NATSObserver) Subject(e Event) string {
	tenant := e.TenantID
	if tenant == "" {
		tenant = "_"
	}
	// Subject tokens cannot contain dots or whitespace
	tenant = strings.NewReplacer(".", "_", " ", "_").Replace(tenant)
	return o.prefix + "." + tenant + "." + string(e.Kind)
}

func (o *NATSObserver) Observe(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode event")
		return
	}
	if err := o.pub.Publish(o.Subject(e), data); err != nil {
		log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("Failed to publish event")
	}
}
