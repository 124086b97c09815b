package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewBroadcaster(Options{})
	go hub.Run(ctx)

	sessions := make([]*Session, 0, recipients)
	for i := range recipients {
		s := NewSession(fmt.Sprintf("c%d", i), "client", 256)
		hub.Join(s)
		<-s.Events() // history replay
		sessions = append(sessions, s)
	}

	// Drain events for all but the first recipient to avoid queue backpressure.
	target := sessions[0]
	for _, s := range sessions[1:] {
		go func(sess *Session) {
			for {
				select {
				case <-sess.Events():
				case <-sess.Done():
					return
				}
			}
		}(s)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := hub.Submit(ctx, "sender", "payload"); err != nil {
			b.Fatalf("submit: %v", err)
		}
		<-target.Events()
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
