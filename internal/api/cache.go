package api

import (
	"strconv"
	"time"

	"github.com/kdimtricp/medannotate/internal/models"
	"github.com/patrickmn/go-cache"
)

// CandidateCache keeps recent candidate listings keyed by threshold and limit. Any
// write to the store flushes it.
type CandidateCache struct {
	c *cache.Cache
}

func NewCandidateCache(ttl time.Duration) *CandidateCache {
	if ttl <= 0 {
		return nil
	}
	return &CandidateCache{c: cache.New(ttl, 2*ttl)}
}

func candidateKey(threshold float64, limit int) string {
	return strconv.FormatFloat(threshold, 'g', -1, 64) + ":" + strconv.Itoa(limit)
}

func (cc *CandidateCache) Get(threshold float64, limit int) ([]models.MedicalText, bool) {
	if cc == nil {
		return nil, false
	}
	v, ok := cc.c.Get(candidateKey(threshold, limit))
	if !ok {
		return nil, false
	}
	return v.([]models.MedicalText), true
}

func (cc *CandidateCache) Set(threshold float64, limit int, items []models.MedicalText) {
	if cc == nil {
		return
	}
	cc.c.SetDefault(candidateKey(threshold, limit), items)
}

func (cc *CandidateCache) Flush() {
	if cc == nil {
		return
	}
	cc.c.Flush()
}

func (cc *CandidateCache) Len() int {
	if cc == nil {
		return 0
	}
	return cc.c.ItemCount()
}
