// Package usecase contains the scan and clean orchestration.
package usecase

import (
	"sync"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// bucket is one category's findings with its own lock.
type bucket struct {
	mu       sync.Mutex
	findings []domain.Finding
}

// Collector is the shared sink scan rules write into.
// Each category has its own lock, so rules of different categories never contend.
type Collector struct {
	mu      sync.Mutex // guards the bucket map, not the buckets
	buckets map[domain.Category]*bucket
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{buckets: make(map[domain.Category]*bucket)}
}

func (c *Collector) bucketFor(category domain.Category) *bucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buckets[category]
	if !ok {
		b = &bucket{}
		c.buckets[category] = b
	}
	return b
}

// Add appends one finding to its category bucket.
func (c *Collector) Add(f domain.Finding) {
	b := c.bucketFor(f.Category)
	b.mu.Lock()
	b.findings = append(b.findings, f)
	b.mu.Unlock()
}

// AddAll appends findings to one bucket under a single lock, keeping their order.
func (c *Collector) AddAll(category domain.Category, findings []domain.Finding) {
	if len(findings) == 0 {
		return
	}
	b := c.bucketFor(category)
	b.mu.Lock()
	b.findings = append(b.findings, findings...)
	b.mu.Unlock()
}

// Result copies the buckets into a ScanResult. Empty buckets are omitted.
func (c *Collector) Result() domain.ScanResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(domain.ScanResult, len(c.buckets))
	for category, b := range c.buckets {
		b.mu.Lock()
		if len(b.findings) > 0 {
			result[category] = append([]domain.Finding(nil), b.findings...)
		}
		b.mu.Unlock()
	}
	return result
}

var _ domain.ResultSink = (*Collector)(nil)
