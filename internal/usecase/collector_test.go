package usecase

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

func TestCollector_ConcurrentWriters(t *testing.T) {
	c := NewCollector()
	categories := []domain.Category{domain.CategoryTemp, domain.CategoryLogs, domain.CategoryCache}

	var wg sync.WaitGroup
	for w := 0; w < 30; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			cat := categories[w%len(categories)]
			for i := 0; i < 50; i++ {
				c.Add(domain.Finding{Path: fmt.Sprintf("/w%d/%d", w, i), Size: 1, Category: cat})
			}
		}(w)
	}
	wg.Wait()

	result := c.Result()
	assert.Equal(t, 1500, result.Count())
	for _, cat := range categories {
		assert.Len(t, result[cat], 500)
	}
}

func TestCollector_AddAllKeepsOrder(t *testing.T) {
	c := NewCollector()
	batch := []domain.Finding{
		{Path: "/a", Category: domain.CategoryLargeFiles},
		{Path: "/b", Category: domain.CategoryLargeFiles},
		{Path: "/c", Category: domain.CategoryLargeFiles},
	}
	c.AddAll(domain.CategoryLargeFiles, batch)
	c.AddAll(domain.CategoryLargeFiles, nil)

	assert.Equal(t, batch, c.Result()[domain.CategoryLargeFiles])
}

func TestCollector_ResultIsACopy(t *testing.T) {
	c := NewCollector()
	c.Add(domain.Finding{Path: "/a", Category: domain.CategoryTemp})

	first := c.Result()
	first[domain.CategoryTemp][0].Path = "/mutated"
	c.Add(domain.Finding{Path: "/b", Category: domain.CategoryTemp})

	second := c.Result()
	assert.Equal(t, "/a", second[domain.CategoryTemp][0].Path)
	assert.Len(t, second[domain.CategoryTemp], 2)
	assert.Len(t, first[domain.CategoryTemp], 1)
}

func TestCollector_EmptyResult(t *testing.T) {
	assert.Empty(t, NewCollector().Result())
}
