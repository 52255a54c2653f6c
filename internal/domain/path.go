package domain

import "strings"

// ObjectLevel identifies the granularity of a cloneable object.
type ObjectLevel string

const (
	LevelDatabase ObjectLevel = "DATABASE"
	LevelSchema   ObjectLevel = "SCHEMA"
	LevelTable    ObjectLevel = "TABLE"
)

// Depth returns the number of path segments an object at this level has.
func (l ObjectLevel) Depth() int {
	switch l {
	case LevelDatabase:
		return 1
	case LevelSchema:
		return 2
	case LevelTable:
		return 3
	}
	return 0
}

// Valid reports whether l is one of the known levels.
func (l ObjectLevel) Valid() bool { return l.Depth() > 0 }

// ObjectPath is a dot-qualified object name split into segments,
// e.g. PROD.SALES.ORDERS -> ["PROD", "SALES", "ORDERS"].
type ObjectPath []string

// ParseObjectPath splits a dot-qualified name into an ObjectPath.
// An empty string yields an empty path.
func ParseObjectPath(name string) ObjectPath {
	if name == "" {
		return nil
	}
	return ObjectPath(strings.Split(name, "."))
}

// String joins the path segments with dots.
func (p ObjectPath) String() string { return strings.Join(p, ".") }

// Database returns the first segment, or "" for an empty path.
func (p ObjectPath) Database() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Schema returns the second segment, or "" when the path is shallower.
func (p ObjectPath) Schema() string {
	if len(p) < 2 {
		return ""
	}
	return p[1]
}

// Object returns the last segment, or "" for an empty path.
func (p ObjectPath) Object() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// ResolveTarget completes a possibly partial target path against its source.
// Each target segment left empty or absent inherits the corresponding source
// segment, except the database segment, which must always be given: a clone
// never lands in its source database by default.
//
// The source path must already have exactly the segment count required by the
// level, and the target must not exceed it. Violations return InvalidPathError.
func ResolveTarget(level ObjectLevel, source, target ObjectPath) (ObjectPath, error) {
	if !level.Valid() {
		return nil, ErrInvalidPath("unknown object level %q", string(level))
	}
	depth := level.Depth()
	if len(source) != depth {
		return nil, ErrInvalidPath("source path %q has %d segments, %s requires %d",
			source.String(), len(source), level, depth)
	}
	if len(target) > depth {
		return nil, ErrInvalidPath("target path %q has %d segments, %s requires at most %d",
			target.String(), len(target), level, depth)
	}
	if target.Database() == "" {
		return nil, ErrInvalidPath("target database is required for %s clone of %q", level, source.String())
	}

	resolved := make(ObjectPath, depth)
	copy(resolved, source)
	for i, seg := range target {
		if seg != "" {
			resolved[i] = seg
		}
	}
	resolved[0] = target[0]
	return resolved, nil
}
