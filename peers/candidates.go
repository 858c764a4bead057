// Package peers implements the candidate peer registry: a bounded,
// LRU-evicting set of addresses learned from PeerResponse messages,
// capped at Config.MaximumCandidatePeers. It supplies the mechanical
// bounded storage spec.md's Environment names but leaves unspecified;
// the policy of which candidates to dial remains an external peer
// manager's job.
package peers

import (
	"net/netip"

	lru "github.com/hashicorp/golang-lru"
)

// Candidates is a fixed-capacity set of candidate peer addresses,
// evicting the least-recently-seen entry once it's full.
type Candidates struct {
	cache *lru.Cache
}

// NewCandidates builds a Candidates registry capped at capacity
// entries. Capacity should come from Config.MaximumCandidatePeers.
func NewCandidates(capacity int) *Candidates {
	cache, err := lru.New(capacity)
	if err != nil {
		// Only returned for capacity <= 0, which is a caller bug: the
		// protocol constant is always positive.
		panic(err)
	}
	return &Candidates{cache: cache}
}

// Add records addr as seen, refreshing its recency if already present.
func (c *Candidates) Add(addr netip.AddrPort) {
	c.cache.Add(addr, struct{}{})
}

// AddAll records every address in addrs.
func (c *Candidates) AddAll(addrs []netip.AddrPort) {
	for _, a := range addrs {
		c.Add(a)
	}
}

// Contains reports whether addr is currently a known candidate.
func (c *Candidates) Contains(addr netip.AddrPort) bool {
	return c.cache.Contains(addr)
}

// Remove drops addr from the candidate set, e.g. once a connection
// attempt to it has succeeded and it is no longer merely a candidate.
func (c *Candidates) Remove(addr netip.AddrPort) {
	c.cache.Remove(addr)
}

// Len reports the current number of candidates.
func (c *Candidates) Len() int {
	return c.cache.Len()
}

// All snapshots the current candidate set. The order is not
// significant.
func (c *Candidates) All() []netip.AddrPort {
	keys := c.cache.Keys()
	out := make([]netip.AddrPort, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.(netip.AddrPort))
	}
	return out
}
