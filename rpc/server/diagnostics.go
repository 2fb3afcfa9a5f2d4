package server

import (
	"github.com/ValentinKolb/dTetris/lib/reactor"
	"net"
	"os"
	"runtime"
	"sort"
	"strings"
)

// hostInfo is the startup diagnostics printed before accepting connections
type hostInfo struct {
	CPUs        int
	Concurrency int
	Hostname    string
	IPv4        []string
	IPv6        []string
}

// collectHostInfo gathers CPU, hostname and local address information.
// Failures only leave fields empty.
func collectHostInfo() hostInfo {
	info := hostInfo{
		CPUs:        runtime.NumCPU(),
		Concurrency: reactor.DetectConcurrency(),
	}
	if name, err := os.Hostname(); err == nil {
		info.Hostname = name
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return info
	}
	info.IPv4, info.IPv6 = splitAddrs(addrs)
	return info
}

// splitAddrs returns the sorted, deduplicated IPv4 and IPv6 addresses
func splitAddrs(addrs []net.Addr) (v4, v6 []string) {
	seen4, seen6 := map[string]bool{}, map[string]bool{}
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		default:
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			seen4[ip4.String()] = true
		} else if ip != nil {
			seen6[ip.String()] = true
		}
	}
	for ip := range seen4 {
		v4 = append(v4, ip)
	}
	for ip := range seen6 {
		v6 = append(v6, ip)
	}
	sort.Strings(v4)
	sort.Strings(v6)
	return v4, v6
}

func logDiagnostics() {
	info := collectHostInfo()
	Logger.Infof("host %q: %d CPUs, %d usable by this process", info.Hostname, info.CPUs, info.Concurrency)
	Logger.Infof("IPv4 addresses: %s", strings.Join(info.IPv4, ", "))
	Logger.Infof("IPv6 addresses: %s", strings.Join(info.IPv6, ", "))
}
