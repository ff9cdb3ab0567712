package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("RequiresBaseURL", func(t *testing.T) {
		_, err := NewClient(Config{APIKey: "key"})
		assert.Error(t, err)
	})

	t.Run("RequiresAPIKey", func(t *testing.T) {
		_, err := NewClient(Config{BaseURL: "https://mail.example"})
		assert.Error(t, err)
	})
}

func TestClient_Send(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got struct {
			From     string `json:"from"`
			FromName string `json:"from_name"`
			To       string `json:"to"`
			Subject  string `json:"subject"`
			TextBody string `json:"text_body"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/send", r.URL.Path)
			assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		client, err := NewClient(Config{
			BaseURL:     srv.URL,
			APIKey:      "key",
			FromAddress: "billing@studio.example",
			FromName:    "Studio Billing",
		})
		require.NoError(t, err)

		err = client.Send(context.Background(), Message{
			To:       "client@acme.example",
			Subject:  "Payment received",
			TextBody: "Thank you!",
		})

		assert.NoError(t, err)
		assert.Equal(t, "billing@studio.example", got.From)
		assert.Equal(t, "Studio Billing", got.FromName)
		assert.Equal(t, "client@acme.example", got.To)
		assert.Equal(t, "Payment received", got.Subject)
	})

	t.Run("EmptyRecipient", func(t *testing.T) {
		client, err := NewClient(Config{BaseURL: "https://mail.example", APIKey: "key"})
		require.NoError(t, err)

		err = client.Send(context.Background(), Message{Subject: "No recipient"})
		assert.Error(t, err)
	})

	t.Run("APIErrorIsSurfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})
		require.NoError(t, err)

		err = client.Send(context.Background(), Message{To: "client@acme.example", Subject: "x"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})
}
