package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step into a content tree: either a mapping key or a
// 0-based sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path locates a value inside an arbitrarily nested JSON structure. It is
// the single shared grammar between the tree walker (which produces paths)
// and rollback reconstruction (which parses them back).
type Path []Segment

// Root returns a path consisting of a single mapping key.
func Root(key string) Path {
	return Path{{Key: key}}
}

// Child returns a new path extended by a mapping key. The receiver is not
// modified.
func (p Path) Child(key string) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, Segment{Key: key})
}

// Element returns a new path extended by a sequence index.
func (p Path) Element(index int) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, Segment{Index: index, IsIndex: true})
}

// String renders the dotted/bracketed notation, e.g. "content.items[2].label".
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if seg.IsIndex {
			b.WriteString("[")
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteString("]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(seg.Key)
	}
	return b.String()
}

// Parse decodes the dotted/bracketed notation back into segments.
func Parse(raw string) (Path, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	var path Path
	for _, part := range strings.Split(raw, ".") {
		if part == "" {
			return nil, fmt.Errorf("path %q contains an empty segment", raw)
		}

		key := part
		var brackets string
		if open := strings.Index(part, "["); open >= 0 {
			key = part[:open]
			brackets = part[open:]
		}

		if key != "" {
			path = append(path, Segment{Key: key})
		} else if brackets == "" || len(path) == 0 {
			return nil, fmt.Errorf("path %q contains an empty segment", raw)
		}

		for brackets != "" {
			if !strings.HasPrefix(brackets, "[") {
				return nil, fmt.Errorf("path %q has malformed index syntax", raw)
			}
			end := strings.Index(brackets, "]")
			if end < 0 {
				return nil, fmt.Errorf("path %q has an unterminated index", raw)
			}
			index, err := strconv.Atoi(brackets[1:end])
			if err != nil || index < 0 {
				return nil, fmt.Errorf("path %q has an invalid index %q", raw, brackets[1:end])
			}
			path = append(path, Segment{Index: index, IsIndex: true})
			brackets = brackets[end+1:]
		}
		if brackets != "" {
			return nil, fmt.Errorf("path %q has trailing characters after index", raw)
		}
	}

	return path, nil
}

// Get resolves the path against a nested structure of map[string]any and
// []any nodes. The second return is false when any segment is missing or
// the node shape does not match the segment kind.
func Get(node any, path Path) (any, bool) {
	current := node
	for _, seg := range path {
		if seg.IsIndex {
			list, ok := current.([]any)
			if !ok || seg.Index >= len(list) {
				return nil, false
			}
			current = list[seg.Index]
			continue
		}
		mapping, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		value, exists := mapping[seg.Key]
		if !exists {
			return nil, false
		}
		current = value
	}
	return current, true
}

// Set writes value at the path inside node, mutating the structure in
// place. Every ancestor must already exist with a shape matching its
// segment kind; Set never creates intermediate containers.
func Set(node any, path Path, value any) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot set an empty path")
	}

	parent := node
	for _, seg := range path[:len(path)-1] {
		if seg.IsIndex {
			list, ok := parent.([]any)
			if !ok {
				return fmt.Errorf("path %s expects a sequence at [%d]", path, seg.Index)
			}
			if seg.Index >= len(list) {
				return fmt.Errorf("path %s index %d out of range", path, seg.Index)
			}
			parent = list[seg.Index]
			continue
		}
		mapping, ok := parent.(map[string]any)
		if !ok {
			return fmt.Errorf("path %s expects a mapping at %q", path, seg.Key)
		}
		child, exists := mapping[seg.Key]
		if !exists {
			return fmt.Errorf("path %s is missing segment %q", path, seg.Key)
		}
		parent = child
	}

	last := path[len(path)-1]
	if last.IsIndex {
		list, ok := parent.([]any)
		if !ok {
			return fmt.Errorf("path %s expects a sequence at [%d]", path, last.Index)
		}
		if last.Index >= len(list) {
			return fmt.Errorf("path %s index %d out of range", path, last.Index)
		}
		list[last.Index] = value
		return nil
	}

	mapping, ok := parent.(map[string]any)
	if !ok {
		return fmt.Errorf("path %s expects a mapping at %q", path, last.Key)
	}
	mapping[last.Key] = value
	return nil
}
