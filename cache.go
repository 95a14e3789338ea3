package pdf

// objectCache stores every resolved indirect object for the lifetime of a
// Document. Entries are never evicted: once an object has been read off
// disk and parsed, the resolver's monotonic guarantee that each object is
// read at most once means dropping an entry would only force a wasted
// re-parse.
type objectCache struct {
	entries map[Reference]Object
}

func newObjectCache() *objectCache {
	return &objectCache{entries: make(map[Reference]Object)}
}

// Put stores obj under key. A second Put for the same key overwrites the
// entry; this only happens if a caller resolves the same reference twice
// concurrently with inconsistent results, which the single-threaded
// resolver never does.
func (c *objectCache) Put(key Reference, obj Object) {
	c.entries[key] = obj
}

// Get returns the cached object for key, if any.
func (c *objectCache) Get(key Reference) (Object, bool) {
	obj, ok := c.entries[key]
	return obj, ok
}

// Has reports whether key has already been resolved.
func (c *objectCache) Has(key Reference) bool {
	_, ok := c.entries[key]
	return ok
}

// Len returns the number of objects resolved so far.
func (c *objectCache) Len() int {
	return len(c.entries)
}
