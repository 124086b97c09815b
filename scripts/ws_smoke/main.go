package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/lanchat-server/internal/proto"
)

type frame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8000/ws", "WebSocket address")
	httpAddr := flag.String("http", "http://localhost:8000", "HTTP base address for the poll transport; empty to skip")
	user := flag.String("user", "tester", "username")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := target.Query()
	q.Set("user", *user)
	target.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	history, err := readFrame(ctx, conn)
	if err != nil {
		return err
	}
	if history.Type != proto.OutboundTypeHistory {
		return fmt.Errorf("expected history frame first, got %q", history.Type)
	}
	var recent []proto.Message
	if err := json.Unmarshal(history.Data, &recent); err != nil {
		return fmt.Errorf("unmarshal history: %w", err)
	}
	fmt.Printf("History: %d messages\n", len(recent))

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Text: text}); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	sent, err := awaitMessage(ctx, conn, *text)
	if err != nil {
		return err
	}
	fmt.Printf("Push: id=%d user=%s text=%q at %s %s\n", sent.ID, sent.User, sent.Text, sent.Date, sent.Time)

	if *httpAddr == "" {
		return nil
	}

	// A message sent over the poll transport must reach the push session.
	pollText := *text + " (via /send)"
	body, err := json.Marshal(proto.SendRequest{User: *user, Text: &pollText})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *httpAddr+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post /send: %w", err)
	}
	defer resp.Body.Close()

	var ack proto.SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("decode /send response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || ack.Status != "ok" {
		return fmt.Errorf("/send failed: status=%d ack=%+v", resp.StatusCode, ack)
	}

	relayed, err := awaitMessage(ctx, conn, pollText)
	if err != nil {
		return err
	}
	if relayed.ID != ack.ID {
		return fmt.Errorf("id mismatch: /send acked %d, push delivered %d", ack.ID, relayed.ID)
	}
	fmt.Printf("Poll->push: id=%d text=%q\n", relayed.ID, relayed.Text)
	return nil
}

func readFrame(ctx context.Context, conn *websocket.Conn) (frame, error) {
	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		return f, fmt.Errorf("read: %w", err)
	}
	return f, nil
}

func awaitMessage(ctx context.Context, conn *websocket.Conn, text string) (proto.Message, error) {
	for {
		f, err := readFrame(ctx, conn)
		if err != nil {
			return proto.Message{}, err
		}
		switch f.Type {
		case proto.OutboundTypeError:
			if f.Error != nil {
				return proto.Message{}, fmt.Errorf("server error: %s: %s", f.Error.Code, f.Error.Msg)
			}
		case proto.OutboundTypeMessage:
			var msg proto.Message
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				fmt.Printf("Raw data: %s\n", string(f.Data))
				return proto.Message{}, fmt.Errorf("unmarshal message: %w", err)
			}
			if msg.Text == text {
				return msg, nil
			}
		default:
			// keep looping for our message
		}
	}
}
