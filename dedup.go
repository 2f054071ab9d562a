package ethconnector

import (
	"encoding/hex"
)

// viewGroup is one view submission shared by every identical batched view.
type viewGroup struct {
	inv     Invocation
	members []pending
}

// viewIndex groups views by (target, method, args) for deduplication.
type viewIndex struct {
	groups []*viewGroup          // Submission order
	byKey  map[string]*viewGroup // View key -> group
	dedup  bool
}

// newViewIndex creates an empty index. With dedup disabled every view gets its own group.
func newViewIndex(dedup bool) *viewIndex {
	return &viewIndex{
		groups: make([]*viewGroup, 0, 8),
		byKey:  make(map[string]*viewGroup),
		dedup:  dedup,
	}
}

// add places p in the group of identical views, creating it if needed.
func (x *viewIndex) add(p pending) {
	inv := p.invocation()
	if !x.dedup {
		x.groups = append(x.groups, &viewGroup{inv: inv, members: []pending{p}})
		return
	}

	key := viewKey(inv)
	if g, exists := x.byKey[key]; exists {
		g.members = append(g.members, p)
		return
	}

	g := &viewGroup{inv: inv, members: []pending{p}}
	x.byKey[key] = g
	x.groups = append(x.groups, g)
}

// submissions returns the number of transport submissions needed.
func (x *viewIndex) submissions() int {
	return len(x.groups)
}

// viewKey identifies a view. Views are stateless on the client side, so
// identical keys always produce identical requests.
func viewKey(inv Invocation) string {
	return string(inv.Target) + "\x00" + inv.Method + "\x00" + hex.EncodeToString(inv.Args)
}
