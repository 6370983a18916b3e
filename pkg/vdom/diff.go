package vdom

import "strconv"

// Diff compares two VNode trees and returns the patches needed to transform
// prev into next. Nil nodes are treated as Empty.
//
// Patches are ordered so they can be applied one after another against a live
// tree: attribute edits come before child edits, removals run in descending
// index order, insertions in ascending order, and a child's own edits are
// emitted once the child sits at its final index. Every Path is therefore
// valid against the tree as mutated by the patches before it.
//
// Diff does not validate its input; see Validate.
func Diff(prev, next *VNode) EditScript {
	var script EditScript
	diff(prev, next, Path{}, &script)
	return script
}

// diff recursively compares nodes at the same position and appends patches.
func diff(prev, next *VNode, path Path, script *EditScript) {
	kind := KindOf(prev)
	if kind != KindOf(next) {
		*script = append(*script, Patch{Op: PatchReplace, Path: path, Node: next})
		return
	}

	switch kind {
	case KindEmpty:
		// Nothing to compare
	case KindText:
		if prev.Text != next.Text {
			*script = append(*script, Patch{Op: PatchSetText, Path: path, Value: next.Text})
		}
	case KindElement:
		if prev.Tag != next.Tag {
			*script = append(*script, Patch{Op: PatchReplace, Path: path, Node: next})
			return
		}
		diffAttrs(prev, next, path, script)
		diffChildren(prev.Children, next.Children, path, script)
	}
}

// diffAttrs emits removals in prev order, then sets in next order.
func diffAttrs(prev, next *VNode, path Path, script *EditScript) {
	nextNames := make(map[string]struct{}, len(next.Attrs))
	for _, a := range next.Attrs {
		nextNames[a.Name] = struct{}{}
	}
	for _, a := range prev.Attrs {
		if _, ok := nextNames[a.Name]; !ok {
			*script = append(*script, Patch{Op: PatchRemoveAttr, Path: path, Name: a.Name})
		}
	}

	prevValues := make(map[string]string, len(prev.Attrs))
	for _, a := range prev.Attrs {
		prevValues[a.Name] = a.Value
	}
	for _, a := range next.Attrs {
		old, ok := prevValues[a.Name]
		if !ok || old != a.Value || IsVolatile(a.Name) {
			*script = append(*script, Patch{Op: PatchSetAttr, Path: path, Name: a.Name, Value: a.Value})
		}
	}
}

// diffChildren picks keyed reconciliation when any child on either side has
// a key.
func diffChildren(prev, next []*VNode, path Path, script *EditScript) {
	if hasKeys(prev) || hasKeys(next) {
		diffKeyedChildren(prev, next, path, script)
	} else {
		diffUnkeyedChildren(prev, next, path, script)
	}
}

// diffUnkeyedChildren handles children without keys using positional matching.
func diffUnkeyedChildren(prev, next []*VNode, path Path, script *EditScript) {
	common := min(len(prev), len(next))

	for i := 0; i < common; i++ {
		diff(prev[i], next[i], path.Child(i), script)
	}
	for i := len(prev) - 1; i >= common; i-- {
		*script = append(*script, Patch{Op: PatchRemoveChild, Path: path, Index: i})
	}
	for i := common; i < len(next); i++ {
		*script = append(*script, Patch{Op: PatchInsertChild, Path: path, Index: i, Node: next[i]})
	}
}

// diffKeyedChildren reconciles children by identity.
//
// Unmatched prev children are removed first (descending), leaving the matched
// ones in their original relative order. The next list is then walked left
// to right: everything before position j is final, so a matched child is
// found at some current index >= j and moved to j when it is not already
// there; unmatched next children are inserted at j.
func diffKeyedChildren(prev, next []*VNode, path Path, script *EditScript) {
	prevIDs := identities(prev)
	nextIDs := identities(next)

	// First occurrence wins on duplicate keys.
	prevIndex := make(map[string]int, len(prev))
	for i, id := range prevIDs {
		if _, dup := prevIndex[id]; !dup {
			prevIndex[id] = i
		}
	}

	matched := make([]bool, len(prev))
	source := make([]int, len(next))
	for j, id := range nextIDs {
		source[j] = -1
		if i, ok := prevIndex[id]; ok && !matched[i] {
			matched[i] = true
			source[j] = i
		}
	}

	for i := len(prev) - 1; i >= 0; i-- {
		if !matched[i] {
			*script = append(*script, Patch{Op: PatchRemoveChild, Path: path, Index: i})
		}
	}

	// live mirrors the host child list: prev indices, -1 for inserted nodes.
	live := make([]int, 0, len(next))
	for i := range prev {
		if matched[i] {
			live = append(live, i)
		}
	}

	for j, nextChild := range next {
		src := source[j]
		if src < 0 {
			*script = append(*script, Patch{Op: PatchInsertChild, Path: path, Index: j, Node: nextChild})
			live = insertAt(live, j, -1)
			continue
		}

		cur := indexFrom(live, j, src)
		if cur != j {
			*script = append(*script, Patch{Op: PatchMoveChild, Path: path, From: cur, To: j})
			live = insertAt(removeAt(live, cur), j, src)
		}
		diff(prev[src], nextChild, path.Child(j), script)
	}
}

// identities returns the reconciliation identity of each child: its key, or
// for unkeyed children their ordinal among unkeyed siblings so that they
// pair up positionally.
func identities(children []*VNode) []string {
	ids := make([]string, len(children))
	unkeyed := 0
	for i, child := range children {
		if key := getKey(child); key != "" {
			ids[i] = "k:" + key
			continue
		}
		ids[i] = "#" + strconv.Itoa(unkeyed)
		unkeyed++
	}
	return ids
}

// getKey returns the key of an element node, or "".
func getKey(node *VNode) string {
	if node == nil || node.Kind != KindElement {
		return ""
	}
	return node.Key
}

// hasKeys returns true if any child has a key.
func hasKeys(children []*VNode) bool {
	for _, child := range children {
		if getKey(child) != "" {
			return true
		}
	}
	return false
}

func indexFrom(s []int, start, v int) int {
	for i := start; i < len(s); i++ {
		if s[i] == v {
			return i
		}
	}
	return -1
}

func insertAt(s []int, i, v int) []int {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt(s []int, i int) []int {
	return append(s[:i], s[i+1:]...)
}
