package http

import (
	"testing"
	"time"
)

func TestRateLimiterDisabled(t *testing.T) {
	r := newRateLimiter(0, time.Minute)
	for range 1000 {
		if !r.allow() {
			t.Fatal("disabled limiter rejected a submission")
		}
	}

	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatal("nil limiter rejected a submission")
	}
}

func TestRateLimiterResetsEachWindow(t *testing.T) {
	r := newRateLimiter(2, 50*time.Millisecond)
	stop := make(chan struct{})
	defer close(stop)
	r.startReset(stop)

	if !r.allow() || !r.allow() {
		t.Fatal("expected first two submissions to pass")
	}
	if r.allow() {
		t.Fatal("expected third submission to be limited")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
		if r.allow() {
			return
		}
	}
	t.Fatal("limiter never reset")
}
