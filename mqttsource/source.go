// Package mqttsource feeds broker messages into a state machine runtime.
// It implements runtime.EventSource on top of an auto-reconnecting MQTT
// connection; a user-supplied Decoder turns raw messages into engine events.
package mqttsource

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"go.uber.org/zap"

	"github.com/comalice/hsmx"
)

// Decoder turns a broker message into an engine event. Returning a nil event
// with a nil error skips the message.
type Decoder func(topic string, payload []byte) (hsmx.Event, error)

// Config describes the broker connection and the event mapping.
type Config struct {
	BrokerURL string
	ClientID  string
	Topics    []string
	QoS       byte
	Decode    Decoder
	Logger    *zap.Logger
	QueueSize int // decoded-event buffer, default 64
}

// Source subscribes to MQTT topics and surfaces decoded events on Events.
type Source struct {
	decode Decoder
	cliCfg autopaho.ClientConfig
	conn   *autopaho.ConnectionManager
	events chan hsmx.Event
	logger *zap.Logger
}

// New validates the config and prepares a source. No connection is made
// until Connect.
func New(cfg Config) (*Source, error) {
	if cfg.Decode == nil {
		return nil, errors.New("mqttsource: Decode is required")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New("mqttsource: at least one topic is required")
	}
	u, err := url.Parse(cfg.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("mqttsource: invalid broker URL: %w", err)
	}

	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Source{
		decode: cfg.Decode,
		events: make(chan hsmx.Event, size),
		logger: logger,
	}

	s.cliCfg = autopaho.ClientConfig{
		BrokerUrls: []*url.URL{u},
		KeepAlive:  20,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			s.logger.Info("mqtt connection up", zap.Strings("topics", cfg.Topics))
			if _, err := cm.Subscribe(context.Background(), subscribePacket(cfg.Topics, cfg.QoS)); err != nil {
				s.logger.Error("mqtt subscribe failed", zap.Error(err))
			}
		},
		OnConnectError: func(err error) {
			s.logger.Warn("mqtt connect error", zap.Error(err))
		},
		ClientConfig: paho.ClientConfig{
			ClientID: cfg.ClientID,
			Router: paho.NewSingleHandlerRouter(func(m *paho.Publish) {
				s.handle(m.Topic, m.Payload)
			}),
			OnClientError: func(err error) {
				s.logger.Warn("mqtt client error", zap.Error(err))
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				s.logger.Warn("mqtt server disconnect", zap.Uint8("reason", uint8(d.ReasonCode)))
			},
		},
	}

	return s, nil
}

// subscribePacket builds one subscribe packet covering every configured
// topic, all at the same QoS.
func subscribePacket(topics []string, qos byte) *paho.Subscribe {
	subs := make([]paho.SubscribeOptions, 0, len(topics))
	for _, topic := range topics {
		subs = append(subs, paho.SubscribeOptions{Topic: topic, QoS: qos})
	}
	return &paho.Subscribe{Subscriptions: subs}
}

// handle decodes one message and buffers the event. Undecodable messages and
// buffer overflow are logged and dropped; the broker connection stays up.
func (s *Source) handle(topic string, payload []byte) {
	event, err := s.decode(topic, payload)
	if err != nil {
		s.logger.Warn("dropping undecodable message",
			zap.String("topic", topic),
			zap.Error(err))
		return
	}
	if event == nil {
		return
	}
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event buffer full, dropping message",
			zap.String("topic", topic),
			zap.String("event", string(event.Kind())))
	}
}

// Connect establishes the broker connection and waits until it is up.
func (s *Source) Connect(ctx context.Context) error {
	conn, err := autopaho.NewConnection(ctx, s.cliCfg)
	if err != nil {
		return err
	}
	if err := conn.AwaitConnection(ctx); err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// Events returns the decoded-event channel, closed by Close.
func (s *Source) Events() <-chan hsmx.Event { return s.events }

// Close disconnects from the broker and closes the event channel.
func (s *Source) Close(ctx context.Context) error {
	defer close(s.events)
	if s.conn == nil {
		return nil
	}
	return s.conn.Disconnect(ctx)
}
