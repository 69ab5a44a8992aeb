package queue

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"chuck-jokes/internal/config"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJokeMessageJSON(t *testing.T) {
	msg := JokeMessage{
		RunID:      "3f1c",
		ID:         7,
		ExternalID: "elgv2wkvt8ioag6xywykbq",
		URL:        "https://api.chucknorris.io/jokes/elgv2wkvt8ioag6xywykbq",
		Text:       "Chuck Norris can divide by zero.",
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "3f1c", fields["run_id"])
	assert.EqualValues(t, 7, fields["id"])
	assert.Equal(t, "elgv2wkvt8ioag6xywykbq", fields["external_id"])
	assert.Equal(t, "Chuck Norris can divide by zero.", fields["text"])
}

func TestNewUnreachable(t *testing.T) {
	_, err := New(config.NATSConfig{URL: "nats://127.0.0.1:1", StreamName: "T", Subject: "t.x"})
	assert.Error(t, err)
}

// set TEST_NATS_URL to a JetStream-enabled server to run
func TestPublishImported(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}

	cfg := config.NATSConfig{URL: url, StreamName: "JOKES_TEST", Subject: "jokes.test.imported"}
	q, err := New(cfg)
	require.NoError(t, err)
	defer q.Close()
	defer q.jetstream.DeleteStream(cfg.StreamName)

	sub, err := q.jetstream.SubscribeSync(cfg.Subject, nats.DeliverNew())
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := &JokeMessage{RunID: "run", ID: 1, ExternalID: "abc", Text: "joke"}
	require.NoError(t, q.PublishImported(ctx, msg))

	got, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Header.Get(nats.MsgIdHdr))

	var parsed JokeMessage
	require.NoError(t, json.Unmarshal(got.Data, &parsed))
	assert.Equal(t, *msg, parsed)
}
