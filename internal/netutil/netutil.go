// Package netutil discovers addresses to advertise in the startup banner.
package netutil

import (
	"net"
	"strconv"
)

// probeAddr is never contacted; dialing UDP only selects the outbound route.
const probeAddr = "8.8.8.8:80"

// LocalIP returns the address other machines on the LAN can most likely
// reach this host on. It falls back to the first non-loopback IPv4 interface
// address and finally to 127.0.0.1.
func LocalIP() string {
	if conn, err := net.Dial("udp", probeAddr); err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsUnspecified() {
			return addr.IP.String()
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}

	return "127.0.0.1"
}

// Port extracts the port of a listener address, "" if it has none.
func Port(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return strconv.Itoa(tcp.Port)
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}
	return port
}
