package netutil

import (
	"net"
	"testing"
)

func TestLocalIPIsParseable(t *testing.T) {
	ip := net.ParseIP(LocalIP())
	if ip == nil {
		t.Fatalf("LocalIP returned an invalid address")
	}
	if ip.To4() == nil {
		t.Fatalf("expected IPv4 address, got %s", ip)
	}
}

func TestPort(t *testing.T) {
	if got := Port(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8000}); got != "8000" {
		t.Fatalf("expected 8000, got %q", got)
	}
	if got := Port(&net.UnixAddr{Name: "/tmp/sock", Net: "unix"}); got != "" {
		t.Fatalf("expected empty port for unix addr, got %q", got)
	}
}
