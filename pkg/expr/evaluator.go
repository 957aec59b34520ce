package expr

import (
	"time"

	"github.com/antibyte/zen/pkg/configuration"
	"github.com/antibyte/zen/pkg/logger"
)

// Evaluator parses and evaluates expression text, reusing parsed trees
// from its cache.
type Evaluator struct {
	cache *ParseCache
}

// NewEvaluator creates an evaluator with a cache of cacheSize entries.
// cacheSize <= 0 disables caching.
func NewEvaluator(cacheSize int, maxAge time.Duration) *Evaluator {
	e := &Evaluator{}
	if cacheSize > 0 {
		e.cache = NewParseCache(cacheSize, maxAge)
	}
	return e
}

// NewConfiguredEvaluator sizes the cache from the [Interpreter] section.
func NewConfiguredEvaluator() *Evaluator {
	return NewEvaluator(
		configuration.GetInt("Interpreter", "expression_cache_size", 256),
		configuration.GetDuration("Interpreter", "expression_cache_max_age", 10*time.Minute),
	)
}

// Eval evaluates src and returns its scalar value.
func (e *Evaluator) Eval(src string) (Value, error) {
	var node Node
	if e.cache != nil {
		if cached, ok := e.cache.Get(src); ok {
			node = cached
		}
	}

	if node == nil {
		parsed, err := Parse(src)
		if err != nil {
			logger.Debug(logger.AreaExpression, "parse of %q failed: %v", src, err)
			return Value{}, err
		}
		node = parsed
		if e.cache != nil {
			e.cache.Put(src, node)
		}
	}

	v, err := node.Eval()
	if err != nil {
		logger.Debug(logger.AreaExpression, "evaluation of %q failed: %v", src, err)
		return Value{}, err
	}
	return v, nil
}

// Stats reports cache statistics; all zero when caching is disabled.
func (e *Evaluator) Stats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// Eval evaluates src without caching.
func Eval(src string) (Value, error) {
	node, err := Parse(src)
	if err != nil {
		return Value{}, err
	}
	return node.Eval()
}
