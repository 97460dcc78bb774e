package runtime

// Builder-facing tree operations used during compilation. The arena
// slot reserved for a reference target is inserted before its content
// is compiled, which is what breaks reference cycles.

// Reserve appends an empty arena slot and returns its index.
func (t *Tree) Reserve() int {
	t.Nodes = append(t.Nodes, nil)
	return len(t.Nodes) - 1
}

// Set backfills a reserved slot with its compiled subschema.
func (t *Tree) Set(index int, sub *Subschema) {
	t.Nodes[index] = sub
}

// At returns the subschema at an arena slot.
func (t *Tree) At(index int) *Subschema {
	return t.Nodes[index]
}

// AddResource registers per-resource dynamic-scope state, returning its
// id.
func (t *Tree) AddResource(info *ResourceInfo) int {
	t.Resources = append(t.Resources, info)
	return len(t.Resources) - 1
}

// Finalize collapses pure reference cycles. A subschema whose only
// node is a static reference constrains nothing by itself; a cycle of
// such subschemas therefore accepts every instance but would recurse
// forever at validate time. They become boolean-true schemas.
func (t *Tree) Finalize() {
	for start := range t.Nodes {
		seen := map[int]int{}
		var order []int
		cur := start
		for {
			target, pure := pureRefTarget(t.Nodes[cur])
			if !pure {
				break
			}
			if at, visited := seen[cur]; visited {
				always := true
				for _, idx := range order[at:] {
					sub := t.Nodes[idx]
					sub.Always = &always
					sub.Nodes = nil
				}
				break
			}
			seen[cur] = len(order)
			order = append(order, cur)
			cur = target
		}
	}
}

func pureRefTarget(sub *Subschema) (int, bool) {
	if sub == nil || sub.Always != nil || len(sub.Nodes) != 1 {
		return 0, false
	}
	ref, ok := sub.Nodes[0].(*refNode)
	if !ok {
		return 0, false
	}
	return ref.target, true
}
