package api

import (
	"testing"
	"time"

	"github.com/kdimtricp/medannotate/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCandidateCacheKeys(t *testing.T) {
	cache := NewCandidateCache(time.Minute)
	items := []models.MedicalText{{ID: "a"}}

	cache.Set(0.6, 10, items)

	got, ok := cache.Get(0.6, 10)
	assert.True(t, ok)
	assert.Equal(t, items, got)

	_, ok = cache.Get(0.6, 5)
	assert.False(t, ok)
	_, ok = cache.Get(0.5, 10)
	assert.False(t, ok)

	cache.Flush()
	_, ok = cache.Get(0.6, 10)
	assert.False(t, ok)
}

func TestCandidateCacheDisabled(t *testing.T) {
	cache := NewCandidateCache(0)
	assert.Nil(t, cache)

	cache.Set(0.6, 10, []models.MedicalText{{ID: "a"}})
	_, ok := cache.Get(0.6, 10)
	assert.False(t, ok)
	cache.Flush()
	assert.Zero(t, cache.Len())
}
