package expr

import "sync"

// Cache memoizes compiled programs and mutations by source text. Compiled
// values are immutable, so one Cache can back any number of engines.
type Cache struct {
	mu        sync.Mutex
	programs  map[string]*Program
	mutations map[string]*Mutation
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		programs:  make(map[string]*Program),
		mutations: make(map[string]*Mutation),
	}
}

// Compile returns the cached program for src, compiling it on first use.
// Failures are not cached.
func (c *Cache) Compile(src string) (*Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[src]; ok {
		return p, nil
	}
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	c.programs[src] = p
	return p, nil
}

// CompileMutation returns the cached mutation for src, compiling it on first use.
func (c *Cache) CompileMutation(src string) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.mutations[src]; ok {
		return m, nil
	}
	m, err := CompileMutation(src)
	if err != nil {
		return nil, err
	}
	c.mutations[src] = m
	return m, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.programs) + len(c.mutations)
}
