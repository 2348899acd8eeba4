package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/models"
)

type fakeBotAPI struct {
	mu   sync.Mutex
	sent []map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"dealdesk","username":"dealdesk_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		f.mu.Lock()
		f.sent = append(f.sent, map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		})
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"group"}}}`)
	default:
		_, _ = io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func TestTelegramNotifierSendsDealClosed(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	n, err := NewTelegramNotifier("123:abc", srv.URL+"/bot%s/%s", 42)
	require.NoError(t, err)

	deal := &models.Deal{ID: "d1", Title: "Big <deal>", Status: models.DealWon, ValueAmount: 1500, ValueCurrency: "EUR", OwnerID: "u1"}
	require.NoError(t, n.DealClosed(context.Background(), deal))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.sent, 1)
	msg := api.sent[0]
	assert.Equal(t, "42", msg["chat_id"])
	assert.Equal(t, "HTML", msg["parse_mode"])
	assert.Contains(t, msg["text"], "Big &lt;deal&gt;")
	assert.Contains(t, msg["text"], "1500.00 EUR")
}

func TestTelegramNotifierBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer srv.Close()

	_, err := NewTelegramNotifier("bad", srv.URL+"/bot%s/%s", 42)
	assert.Error(t, err)
}

func TestDealClosedTextMarksLost(t *testing.T) {
	text := dealClosedText(&models.Deal{Title: "Churned", Status: models.DealLost, ValueCurrency: "USD"})
	assert.True(t, strings.HasPrefix(text, "❌"))
	assert.Contains(t, text, "<b>lost</b>")
}
