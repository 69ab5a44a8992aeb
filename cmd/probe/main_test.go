package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"chuck-jokes/internal/chucknorris"
	"chuck-jokes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAPI struct {
	jokes []*models.Joke
	errs  []error
	i     int
}

func (s *scriptedAPI) Random(ctx context.Context) (*models.Joke, error) {
	defer func() { s.i++ }()
	return s.jokes[s.i], s.errs[s.i]
}

func TestProbe(t *testing.T) {
	api := &scriptedAPI{
		jokes: []*models.Joke{
			{ID: "a", Value: "first"},
			{ID: "b", Value: "rude", Categories: []string{"explicit"}},
			nil,
			{ID: "a", Value: "first"},
		},
		errs: []error{nil, nil, chucknorris.ErrUnparseable, nil},
	}

	var buf bytes.Buffer
	require.NoError(t, probe(context.Background(), &buf, api, 4))

	out := buf.String()
	assert.Contains(t, out, "1: [ok] a first")
	assert.Contains(t, out, "2: [explicit] b rude")
	assert.Contains(t, out, "3: [unparseable]")
	assert.Contains(t, out, "4: [duplicate] a first")
}

func TestProbeTransportError(t *testing.T) {
	api := &scriptedAPI{
		jokes: []*models.Joke{nil},
		errs:  []error{&chucknorris.TransportError{URL: "u", StatusCode: 500}},
	}

	err := probe(context.Background(), &bytes.Buffer{}, api, 1)
	var te *chucknorris.TransportError
	assert.True(t, errors.As(err, &te))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "абв...", preview("абвгд", 3))
}
