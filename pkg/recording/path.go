package recording

import "strings"

// Path is a slash-delimited hierarchical address of a scene node.
// The root is "/". Paths are normalized: leading slash, no trailing
// slash, no empty segments.
type Path string

// RootPath addresses the scene root.
const RootPath Path = "/"

// NormalizePath canonicalizes a raw path string.
func NormalizePath(raw string) Path {
	parts := strings.Split(raw, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 {
		return RootPath
	}
	return Path("/" + strings.Join(segs, "/"))
}

// Segments returns the path's segment names, nil for the root.
func (p Path) Segments() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(string(p[1:]), "/")
}

// Parent returns the parent path. The root's parent is the root.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return RootPath
	}
	i := strings.LastIndexByte(string(p), '/')
	if i <= 0 {
		return RootPath
	}
	return p[:i]
}

// Child returns the path extended by one segment.
func (p Path) Child(name string) Path {
	if p.IsRoot() {
		return Path("/" + name)
	}
	return p + Path("/"+name)
}

// Name returns the last segment, "" for the root.
func (p Path) Name() string {
	if p.IsRoot() {
		return ""
	}
	i := strings.LastIndexByte(string(p), '/')
	return string(p[i+1:])
}

// IsRoot reports whether the path addresses the root.
func (p Path) IsRoot() bool {
	return p == RootPath || p == ""
}

// HasPrefix reports whether p equals prefix or lies below it.
func (p Path) HasPrefix(prefix Path) bool {
	if prefix.IsRoot() {
		return true
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(string(p), string(prefix)+"/")
}
