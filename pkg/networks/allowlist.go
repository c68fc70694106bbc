package networks

import (
	"fmt"
	"net"
	"strings"

	"github.com/yl2chen/cidranger"
)

// Allowlist holds the networks allowed to reach the admin API. An empty
// list allows every address.
type Allowlist struct {
	ranger cidranger.Ranger
	size   int
}

type entry struct {
	network net.IPNet
}

func (e entry) Network() net.IPNet {
	return e.network
}

func NewAllowlist(cidrs []string) (*Allowlist, error) {
	a := &Allowlist{ranger: cidranger.NewPCTrieRanger()}
	for _, cidr := range cidrs {
		// bare addresses are single-host networks
		if !strings.Contains(cidr, "/") {
			if ip := net.ParseIP(cidr); ip != nil && ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}

		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid network %q: %w", cidr, err)
		}
		if err := a.ranger.Insert(entry{network: *network}); err != nil {
			return nil, err
		}
		a.size++
	}
	return a, nil
}

func (a *Allowlist) Allowed(address string) (bool, error) {
	if a == nil || a.size == 0 {
		return true, nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return false, nil
	}
	return a.ranger.Contains(ip)
}
