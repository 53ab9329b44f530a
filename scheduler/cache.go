package scheduler

import (
	"sync"

	"github.com/Dilaz/sanabotti/llm"
	"github.com/Dilaz/sanabotti/rules"
)

// resultCache remembers external verdicts by normalized word so previously
// confirmed words are never re-sent. It is the only state shared between
// the scheduler goroutine and in-flight flush goroutines.
type resultCache struct {
	mu       sync.RWMutex
	verdicts map[string]llm.Verdict
}

func newResultCache() *resultCache {
	return &resultCache{verdicts: make(map[string]llm.Verdict)}
}

func (c *resultCache) get(word string) (llm.Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.verdicts[rules.Normalize(word)]
	return v, ok
}

func (c *resultCache) put(word string, v llm.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts[rules.Normalize(word)] = v
}

func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.verdicts)
}
