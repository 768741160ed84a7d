package layout

import "xclower/internal/symbols"

type entry struct {
	layout *ClassLayout
	err    *LayoutError
}

type cache struct {
	byClass map[symbols.ClassID]entry
}

func newCache() *cache {
	return &cache{byClass: make(map[symbols.ClassID]entry, 64)}
}

func (c *cache) get(id symbols.ClassID) (entry, bool) {
	e, ok := c.byClass[id]
	return e, ok
}

func (c *cache) put(id symbols.ClassID, e entry) {
	c.byClass[id] = e
}
