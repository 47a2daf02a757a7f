package merge

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/cwbudde/algo-spectra/spectra/band"
)

// Cache memoizes plans by the fingerprint of the stitched grids. Every
// target of one instrument configuration shares its grids, so a batch
// builds its plan once. Cache is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	plans  map[uint64]*Plan
	hits   uint64
	misses uint64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{plans: make(map[uint64]*Plan)}
}

// Plan returns the cached plan for grids or builds and stores a new one.
// The boolean reports a cache hit. Failed builds are not cached.
func (c *Cache) Plan(grids map[band.Band][]float64, opts ...Option) (*Plan, bool, error) {
	cfg := buildConfig(opts)
	key := fingerprint(cfg.bands, grids)

	c.mu.Lock()
	if p, ok := c.plans[key]; ok {
		c.hits++
		c.mu.Unlock()
		return p, true, nil
	}
	c.misses++
	c.mu.Unlock()

	p, err := NewPlan(grids, WithBands(cfg.bands...))
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.plans[key]; ok {
		return existing, false, nil
	}
	c.plans[key] = p
	return p, false, nil
}

// Len returns the number of cached plans.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.plans)
}

// Counts returns the number of cache hits and misses so far.
func (c *Cache) Counts() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func fingerprint(bands []band.Band, grids map[band.Band][]float64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, b := range bands {
		binary.LittleEndian.PutUint64(buf[:], uint64(b))
		_, _ = d.Write(buf[:])
		if g, ok := grids[b]; ok {
			band.HashInto(d, g)
		} else {
			binary.LittleEndian.PutUint64(buf[:], ^uint64(0))
			_, _ = d.Write(buf[:])
		}
	}
	return d.Sum64()
}
