package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-service/internal/logging"
	"sla-service/internal/models"
)

func TestHub_BroadcastsToClients(t *testing.T) {
	hub := NewHub(logging.NewNop())
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	sent := violation("REQ-9")
	require.NoError(t, hub.Send(context.Background(), sent))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)

	var got models.Notification
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "REQ-9", got.RequestID)
	assert.Equal(t, models.NotificationViolation, got.Type)

	client.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SendWithoutClients(t *testing.T) {
	hub := NewHub(logging.NewNop())
	assert.NoError(t, hub.Send(context.Background(), violation("REQ-1")))
	assert.Equal(t, "websocket", hub.Name())
}
