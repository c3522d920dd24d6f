package telegram

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpi-ops/sd-backup/modules/logger"
)

func TestInitRequiresCredentials(t *testing.T) {
	_, err := Init(Opts{ChatID: "42"})
	assert.Error(t, err)

	_, err = Init(Opts{BotToken: "token"})
	assert.Error(t, err)

	_, err = Init(Opts{BotToken: "token", ChatID: "42"})
	assert.NoError(t, err)
}

func TestSend(t *testing.T) {
	var got url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got, _ = url.ParseQuery(string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg, err := Init(Opts{
		BotToken:     "token",
		ChatID:       "42",
		APIBase:      srv.URL,
		MessageLevel: logrus.InfoLevel,
		ServerName:   "pi4",
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	tg.Send(log, logger.Log("device1", "").Info("Backup completed."))

	require.NotNil(t, got)
	assert.Equal(t, "42", got.Get("chat_id"))
	assert.Equal(t, "Markdown", got.Get("parse_mode"))
	assert.Contains(t, got.Get("text"), "Backup completed.")
	assert.Contains(t, got.Get("text"), "device1")
}

func TestSendLevelFiltered(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tg, err := Init(Opts{
		BotToken:     "token",
		ChatID:       "42",
		APIBase:      srv.URL,
		MessageLevel: logrus.ErrorLevel,
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	tg.Send(log, logger.Log("device1", "").Info("below the configured level"))
	assert.False(t, called)
}

func TestSendDeliveryErrorSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tg, err := Init(Opts{
		BotToken:     "token",
		ChatID:       "42",
		APIBase:      srv.URL,
		MessageLevel: logrus.InfoLevel,
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	// Must not panic or propagate anything.
	tg.Send(log, logger.Log("device1", "").Error("backup failed"))
}
