package main

import (
	"fmt"
	"io"
	"net"

	"github.com/vovakirdan/lanchat-server/internal/netutil"
)

func printBanner(w io.Writer, addr net.Addr) {
	port := netutil.Port(addr)
	lanIP := netutil.LocalIP()

	fmt.Fprintln(w, "lanchat server is running")
	fmt.Fprintf(w, "  local:     http://localhost:%s\n", port)
	fmt.Fprintf(w, "  network:   http://%s:%s\n", lanIP, port)
	fmt.Fprintf(w, "  websocket: ws://%s:%s/ws\n", lanIP, port)
	fmt.Fprintln(w, "Press Ctrl+C to stop.")
}
