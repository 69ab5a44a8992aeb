package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chuck-jokes/internal/config"
	"chuck-jokes/pkg/logger"

	"github.com/nats-io/nats.go"
)

type NATS struct {
	conn      *nats.Conn
	jetstream nats.JetStreamContext
	cfg       config.NATSConfig
}

func New(cfg config.NATSConfig) (*NATS, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("chuck-jokes"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream: %w", err)
	}

	n := &NATS{
		conn:      conn,
		jetstream: js,
		cfg:       cfg,
	}

	if err := n.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	return n, nil
}

func (n *NATS) ensureStream() error {
	_, err := n.jetstream.StreamInfo(n.cfg.StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", n.cfg.StreamName, err)
	}

	_, err = n.jetstream.AddStream(&nats.StreamConfig{
		Name:     n.cfg.StreamName,
		Subjects: []string{n.cfg.Subject},
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", n.cfg.StreamName, err)
	}

	logger.Info("Created NATS stream",
		logger.String("stream", n.cfg.StreamName),
		logger.String("subject", n.cfg.Subject),
	)
	return nil
}

func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

// JokeMessage announces one joke committed by an import run.
type JokeMessage struct {
	RunID      string `json:"run_id"`
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
	Text       string `json:"text"`
}

// PublishImported publishes joke to the configured subject. The external id is used as the
// JetStream message id so the broker drops repeats inside its dedup window.
func (n *NATS) PublishImported(ctx context.Context, joke *JokeMessage) error {
	data, err := json.Marshal(joke)
	if err != nil {
		return fmt.Errorf("failed to marshal joke: %w", err)
	}

	_, err = n.jetstream.Publish(n.cfg.Subject, data, nats.MsgId(joke.ExternalID), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish joke: %w", err)
	}

	logger.Debug("Joke published to queue",
		logger.String("external_id", joke.ExternalID),
		logger.String("run_id", joke.RunID),
	)

	return nil
}
