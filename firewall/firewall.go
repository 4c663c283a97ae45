// firewall holds the static deny rules checked before any TLS work is
// spent on a connection. Rules are CIDR ranges; lookups are O(prefix)
// through a path-compressed trie.
package firewall

import (
	"fmt"
	"net"
	"sync"

	"github.com/yl2chen/cidranger"
)

// CIDRBlocklist is a seclayer.IPBlocklist over a set of CIDR ranges.
type CIDRBlocklist struct {
	mutex  sync.RWMutex
	ranger cidranger.Ranger
	size   int
}

// NewCIDRBlocklist builds a blocklist from CIDR strings. A bare
// address is accepted and treated as a /32 (or /128) range.
func NewCIDRBlocklist(cidrs []string) (*CIDRBlocklist, error) {
	list := &CIDRBlocklist{
		ranger: cidranger.NewPCTrieRanger(),
	}

	for _, cidr := range cidrs {
		if err := list.Add(cidr); err != nil {
			return nil, err
		}
	}

	return list, nil
}

// Add inserts one CIDR range into the list.
func (c *CIDRBlocklist) Add(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		ip := net.ParseIP(cidr)
		if ip == nil {
			return fmt.Errorf("incorrect cidr %s: %w", cidr, err)
		}

		network = singleHostNetwork(ip)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.ranger.Insert(cidranger.NewBasicRangerEntry(*network)); err != nil {
		return fmt.Errorf("cannot insert %s: %w", cidr, err)
	}

	c.size++

	return nil
}

// Contains reports whether the address falls into any listed range.
func (c *CIDRBlocklist) Contains(ip net.IP) bool {
	if ip == nil {
		return true
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	contains, err := c.ranger.Contains(ip)

	return err == nil && contains
}

// Len returns the number of listed ranges.
func (c *CIDRBlocklist) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.size
}

// Shutdown is a no-op for the static list.
func (c *CIDRBlocklist) Shutdown() {}

func singleHostNetwork(ip net.IP) *net.IPNet {
	if v4 := ip.To4(); v4 != nil {
		return &net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}
	}

	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}
}
