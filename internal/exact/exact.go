// Package exact keeps precise per-key counts. It exists to validate sketch
// estimates and uses memory proportional to the number of distinct keys.
package exact

import (
	"sort"
	"sync"
)

type Counter struct {
	mu     sync.RWMutex
	counts map[string]uint64
	total  uint64
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]uint64)}
}

func (c *Counter) Add(key string) {
	c.mu.Lock()
	c.counts[key]++
	c.total++
	c.mu.Unlock()
}

func (c *Counter) Count(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[key]
}

func (c *Counter) Total() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

func (c *Counter) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.counts)
}

// Map returns a copy of the counts.
func (c *Counter) Map() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

type Entry struct {
	Key   string `json:"key"`
	Count uint64 `json:"count"`
}

// Top returns the n most frequent keys, ties broken by key. n <= 0 returns
// every key.
func (c *Counter) Top(n int) []Entry {
	c.mu.RLock()
	entries := make([]Entry, 0, len(c.counts))
	for k, v := range c.counts {
		entries = append(entries, Entry{Key: k, Count: v})
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})

	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}
