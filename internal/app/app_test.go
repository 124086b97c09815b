package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lanchat-server/internal/config"
	"github.com/vovakirdan/lanchat-server/internal/proto"
	"github.com/vovakirdan/lanchat-server/internal/store/sqlite"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	cfg.Poll.Timeout = 200 * time.Millisecond
	cfg.Archive.Path = filepath.Join(t.TempDir(), "archive.db")
	return cfg
}

func TestAppServesAndArchives(t *testing.T) {
	cfg := testConfig(t)
	logger := zerolog.Nop()

	application, err := New(&cfg, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	addr, err := application.Listen()
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- application.Run(ctx) }()

	wsCtx, wsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer wsCancel()

	conn, _, err := websocket.Dial(wsCtx, "ws://"+addr.String()+"/ws?user=Bo", nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if frame := readFrame(wsCtx, t, conn); frame.Type != proto.OutboundTypeHistory {
		t.Fatalf("expected history frame, got %+v", frame)
	}
	text := "over ws"
	if err := wsjson.Write(wsCtx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Text: &text}); err != nil {
		t.Fatalf("write ws: %v", err)
	}
	if msg := readMessageFrame(wsCtx, t, conn); msg.ID != 0 || msg.User != "Bo" || msg.Text != "over ws" {
		t.Fatalf("unexpected ws message: %+v", msg)
	}

	base := "http://" + addr.String()
	resp, err := http.Post(base+"/send", "application/json", strings.NewReader(`{"user":"Ann","text":"kept"}`))
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected send status %d: %s", resp.StatusCode, body)
	}

	// Messages sent over the poll transport reach push sessions too.
	if msg := readMessageFrame(wsCtx, t, conn); msg.ID != 1 || msg.Text != "kept" {
		t.Fatalf("unexpected relayed message: %+v", msg)
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	st, err := sqlite.New(cfg.Archive.Path)
	if err != nil {
		t.Fatalf("reopen archive: %v", err)
	}
	defer st.Close()

	msgs, err := st.ListMessages(context.Background(), application.RunID(), 10)
	if err != nil {
		t.Fatalf("list archive: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Body != "over ws" || msgs[1].Body != "kept" || msgs[1].User != "Ann" {
		t.Fatalf("unexpected archive contents: %+v", msgs)
	}
}

type wireFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()

	var frame wireFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func readMessageFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.Message {
	t.Helper()

	frame := readFrame(ctx, t, conn)
	if frame.Type != proto.OutboundTypeMessage {
		t.Fatalf("expected message frame, got %s", frame.Type)
	}
	var msg proto.Message
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	return msg
}

func TestListenReportsBindFailure(t *testing.T) {
	first := testConfig(t)
	logger := zerolog.Nop()

	a, err := New(&first, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	addr, err := a.Listen()
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer a.listener.Close()
	defer a.cleanup()

	second := testConfig(t)
	second.Addr = addr.String()
	b, err := New(&second, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := b.Listen(); err == nil || !strings.Contains(err.Error(), "cannot bind") {
		t.Fatalf("expected bind error, got %v", err)
	}
}

func TestNewWithoutArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Path = ""
	logger := zerolog.Nop()

	a, err := New(&cfg, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.store != nil {
		t.Fatal("expected no archive store")
	}
}
