package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loyalty-service/internal/domain/auth"
	"loyalty-service/internal/domain/notification"
	wstypes "loyalty-service/internal/domain/websocket"
	xerrors "loyalty-service/internal/pkg/errors"
	ws "loyalty-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type fakeResolver map[string]auth.Principal

func (f fakeResolver) Resolve(_ context.Context, token string) (auth.Principal, error) {
	if p, ok := f[token]; ok {
		return p, nil
	}
	return auth.Principal{}, xerrors.Unauthorized("invalid token")
}

func startHub(t *testing.T) (*ws.Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub(fakeResolver{
		"c1":    {Role: auth.RoleCustomer, SubjectID: "cust_1"},
		"c2":    {Role: auth.RoleCustomer, SubjectID: "cust_2"},
		"staff": {Role: auth.RoleStaff},
	}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", NewWebSocketHandler(hub, nil, zap.NewNop()).HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", token, err)
	}
	t.Cleanup(func() { conn.Close() })

	if msg := read(t, conn); msg.Type != wstypes.EventTypeConnected {
		t.Fatalf("expected connected, got %s", msg.Type)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wstypes.WSMessage {
	t.Helper()
	var msg wstypes.WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestRejectsUnauthenticated(t *testing.T) {
	_, url := startHub(t)

	for _, token := range []string{"", "bogus"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
		if err == nil {
			t.Fatalf("token %q: expected handshake failure", token)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %v", token, resp)
		}
	}
}

func TestNotificationReachesOwnerAndStaff(t *testing.T) {
	hub, url := startHub(t)

	owner := dial(t, url, "c1")
	other := dial(t, url, "c2")
	staff := dial(t, url, "staff")

	if n := hub.TotalClients(); n != 3 {
		t.Fatalf("expected 3 clients, got %d", n)
	}

	hub.PublishNotification(notification.Notification{
		ID:         "notif_x",
		CustomerID: "cust_1",
		Type:       notification.TypePromo,
		Message:    "hello",
		Status:     notification.StatusSent,
	})

	for name, conn := range map[string]*websocket.Conn{"owner": owner, "staff": staff} {
		if msg := read(t, conn); msg.Type != wstypes.EventTypeNotificationSent {
			t.Fatalf("%s: expected notification:sent, got %s", name, msg.Type)
		}
	}

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg wstypes.WSMessage
	if err := other.ReadJSON(&msg); err == nil {
		t.Fatalf("unrelated customer received %s", msg.Type)
	}
}

func TestPingAndUnsubscribe(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url, "c1")

	if err := conn.WriteJSON(wstypes.NewMessage(wstypes.EventTypePing, nil)); err != nil {
		t.Fatal(err)
	}
	if msg := read(t, conn); msg.Type != wstypes.EventTypePong {
		t.Fatalf("expected pong, got %s", msg.Type)
	}

	unsub := wstypes.NewMessage(wstypes.EventTypeUnsubscribe, wstypes.SubscribeRequest{
		Channels: []wstypes.ChannelType{wstypes.ChannelNotifications},
	})
	if err := conn.WriteJSON(unsub); err != nil {
		t.Fatal(err)
	}
	// a ping round trip orders the unsubscribe before the publish
	if err := conn.WriteJSON(wstypes.NewMessage(wstypes.EventTypePing, nil)); err != nil {
		t.Fatal(err)
	}
	for {
		if msg := read(t, conn); msg.Type == wstypes.EventTypePong {
			break
		}
	}

	hub.PublishNotification(notification.Notification{ID: "n", CustomerID: "cust_1", Status: notification.StatusQueued})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg wstypes.WSMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("unsubscribed client received %s", msg.Type)
	}
}
