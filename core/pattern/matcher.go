// Package pattern compiles path patterns such as /material/*/color into
// anchored matchers and memoizes them by source pattern.
package pattern

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"pricing-engine/internal/errors"
)

// segment matches one non-empty path segment
const segment = `[^/]+`

// Matcher tests paths against one compiled pattern
type Matcher struct {
	re *regexp.Regexp
}

// Match reports whether the whole path matches
func (m *Matcher) Match(path string) bool {
	return m.re.MatchString(path)
}

// Filter returns the paths that match, sorted
func (m *Matcher) Filter(paths []string) []string {
	var out []string
	for _, p := range paths {
		if m.Match(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// IsWildcard reports whether s contains a * segment marker
func IsWildcard(s string) bool {
	return strings.Contains(s, "*")
}

// Compile turns each * into a single-segment match and anchors the result.
// Other characters are passed to the regexp engine unchanged.
func Compile(source string) (*Matcher, error) {
	expr := "^" + strings.ReplaceAll(source, "*", segment) + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeUnparsablePattern, err, "invalid path pattern '%s'", source).
			WithContext("pattern", source)
	}
	return &Matcher{re: re}, nil
}

// Cache memoizes compiled matchers by source pattern. It only grows.
type Cache struct {
	mu       sync.RWMutex
	matchers map[string]*Matcher
	group    singleflight.Group
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		matchers: make(map[string]*Matcher),
	}
}

// Default is the process-wide cache engines share unless given their own
var Default = NewCache()

// Get returns the cached matcher for source, compiling it on first use.
// Concurrent misses for the same pattern compile once.
func (c *Cache) Get(source string) (*Matcher, error) {
	c.mu.RLock()
	m, ok := c.matchers[source]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err, shared := c.group.Do(source, func() (interface{}, error) {
		c.mu.RLock()
		m, ok := c.matchers[source]
		c.mu.RUnlock()
		if ok {
			return m, nil
		}

		m, err := Compile(source)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.matchers[source] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		// every waiter on a shared call gets the same error value
		if e, ok := errors.As(err); ok && shared {
			return nil, e.Clone()
		}
		return nil, err
	}
	return v.(*Matcher), nil
}

// Len returns the number of cached matchers
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matchers)
}

// Patterns returns the cached pattern sources, sorted
func (c *Cache) Patterns() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.matchers))
	for p := range c.matchers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
