package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lanchat-server/internal/config"
	"github.com/vovakirdan/lanchat-server/internal/core"
	"github.com/vovakirdan/lanchat-server/internal/proto"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.Poll.Timeout = 300 * time.Millisecond
	return cfg
}

// startTestServer runs a hub and an httptest server around NewServer. The
// returned stop func shuts the hub down early; it is also run on cleanup.
func startTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *core.Broadcaster, func()) {
	t.Helper()

	disabledLogger := zerolog.Nop()
	hub := core.NewBroadcaster(core.Options{
		Window:   cfg.History.Window,
		Capacity: cfg.History.Capacity,
		Logger:   &disabledLogger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	stop := func() {
		cancel()
		<-done
	}

	server := NewServer(hub, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		stop()
		ts.Close()
	})

	return ts, hub, stop
}

type wireFrame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error,omitempty"`
}

func dialWS(ctx context.Context, t *testing.T, ts *httptest.Server, user string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if user != "" {
		wsURL += "?user=" + user
	}
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", user, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()

	var frame wireFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func readHistory(ctx context.Context, t *testing.T, conn *websocket.Conn) []proto.Message {
	t.Helper()

	frame := readFrame(ctx, t, conn)
	if frame.Type != proto.OutboundTypeHistory {
		t.Fatalf("expected history frame, got %s", frame.Type)
	}
	var msgs []proto.Message
	if err := json.Unmarshal(frame.Data, &msgs); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	return msgs
}

func readMessage(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.Message {
	t.Helper()

	frame := readFrame(ctx, t, conn)
	if frame.Type != proto.OutboundTypeMessage {
		t.Fatalf("expected message frame, got %s (error=%+v)", frame.Type, frame.Error)
	}
	var msg proto.Message
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	return msg
}

func sendText(ctx context.Context, t *testing.T, conn *websocket.Conn, user, text string) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, User: user, Text: &text}); err != nil {
		t.Fatalf("write message: %v", err)
	}
}
