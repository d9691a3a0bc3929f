package messenger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"eshop/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "page-token", r.URL.Query().Get("access_token"))

		var body sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "42", body.Recipient.ID)
		assert.Equal(t, "[CS:abc] Ahoj", body.Message.Text)

		w.Write([]byte(`{"recipient_id":"42","message_id":"mid.1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", logger.NewNop())
	id, err := client.SendText(context.Background(), "page-token", "42", "[CS:abc] Ahoj")
	require.NoError(t, err)
	assert.Equal(t, "mid.1", id)
}

func TestSendTextAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","code":190}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, logger.NewNop()).SendText(context.Background(), "bad", "42", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid OAuth access token.")
}

func TestSendTextHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, logger.NewNop()).SendText(context.Background(), "t", "42", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
