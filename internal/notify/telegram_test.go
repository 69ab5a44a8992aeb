package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chuck-jokes/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okResponse = `{"ok":true,"result":{"message_id":1,"date":1700000000,"chat":{"id":42,"type":"private"},"text":"done"}}`

const floodResponse = `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 1","parameters":{"retry_after":1}}`

func newServer(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestNewTelegramValidation(t *testing.T) {
	_, err := NewTelegram(config.TelegramConfig{ChatID: 1})
	assert.True(t, errors.Is(err, config.ErrEmptyBotToken))

	_, err = NewTelegram(config.TelegramConfig{Token: "t"})
	assert.True(t, errors.Is(err, config.ErrEmptyChatID))

	_, err = NewTelegram(config.TelegramConfig{Token: "t", ChatID: 1})
	assert.NoError(t, err, "offline bot must not call the API on creation")
}

func TestNotify(t *testing.T) {
	var body string
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/bottest-token/sendMessage"), r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okResponse))
	})

	tg, err := NewTelegram(config.TelegramConfig{Token: "test-token", ChatID: 42, URL: url})
	require.NoError(t, err)

	require.NoError(t, tg.Notify(context.Background(), "Imported 3 jokes"))
	assert.Contains(t, body, "42")
	assert.Contains(t, body, "Imported 3 jokes")
}

func TestNotifyRetriesOnRateLimit(t *testing.T) {
	var calls int32
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(floodResponse))
			return
		}
		w.Write([]byte(okResponse))
	})

	tg, err := NewTelegram(config.TelegramConfig{Token: "test-token", ChatID: 42, URL: url}, WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, tg.Notify(context.Background(), "hi"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNotifyGivesUpAfterRetries(t *testing.T) {
	var calls int32
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(floodResponse))
	})

	tg, err := NewTelegram(config.TelegramConfig{Token: "test-token", ChatID: 42, URL: url}, WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	err = tg.Notify(context.Background(), "hi")
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
	assert.Equal(t, int32(maxRetries), atomic.LoadInt32(&calls))
}

func TestNotifyNoWaitAfterLastAttempt(t *testing.T) {
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(floodResponse))
	})

	delay := 150 * time.Millisecond
	tg, err := NewTelegram(config.TelegramConfig{Token: "test-token", ChatID: 42, URL: url}, WithRetryDelay(delay))
	require.NoError(t, err)

	started := time.Now()
	err = tg.Notify(context.Background(), "hi")
	elapsed := time.Since(started)

	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
	// waits 150ms and 300ms between the three attempts, and not the 600ms after the last
	assert.GreaterOrEqual(t, elapsed, 3*delay)
	assert.Less(t, elapsed, 6*delay)
}

func TestNotifyOtherError(t *testing.T) {
	var calls int32
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	})

	tg, err := NewTelegram(config.TelegramConfig{Token: "test-token", ChatID: 42, URL: url})
	require.NoError(t, err)

	err = tg.Notify(context.Background(), "hi")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
