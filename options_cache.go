package buildopts

import "sync"

// ProgramCache stores compiled condition programs keyed by engine and
// expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *resolverConfig) {
		cfg.programCache = cache
	}
}

// MemoryProgramCache is a ProgramCache safe for concurrent use.
type MemoryProgramCache struct {
	programs sync.Map
}

// NewMemoryProgramCache returns an empty in-memory cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{}
}

// Get implements ProgramCache.
func (c *MemoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

// Set implements ProgramCache.
func (c *MemoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}

// engineCache namespaces keys by engine so evaluators can share one cache.
type engineCache struct {
	engine string
	cache  ProgramCache
}

func scopedCache(engine string, cache ProgramCache) ProgramCache {
	if cache == nil {
		return nil
	}
	return engineCache{engine: engine, cache: cache}
}

func (c engineCache) Get(expression string) (any, bool) {
	return c.cache.Get(c.engine + ":" + expression)
}

func (c engineCache) Set(expression string, program any) {
	c.cache.Set(c.engine+":"+expression, program)
}
