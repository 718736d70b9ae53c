package vfs

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// FileName identifies a node. Paths are absolute, "/"-separated and decoded.
type FileName interface {
	Scheme() string
	// RootURI is the URI of the filesystem root, without a trailing separator.
	RootURI() string
	Path() string
	Type() FileType
	BaseName() string
	// URI is RootURI followed by the percent-encoded path.
	URI() string
	// FriendlyURI is URI with any password masked.
	FriendlyURI() string
	// Parent returns nil for the root.
	Parent() FileName
	CreateName(path string, t FileType) FileName
}

var ErrBadPath = errors.New("invalid path")

// NormalizePath makes p absolute, converts backslashes, collapses separators and
// resolves "." and ".." segments. A ".." escaping the root is an error.
func NormalizePath(p string) (string, error) {
	p = strings.ReplaceAll(p, `\`, "/")

	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", fmt.Errorf("%w: %q goes above the root", ErrBadPath, p)
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	return "/" + strings.Join(out, "/"), nil
}

// ResolvePath resolves rel against the absolute path base.
func ResolvePath(base, rel string) (string, error) {
	if strings.HasPrefix(rel, "/") {
		return NormalizePath(rel)
	}
	return NormalizePath(base + "/" + rel)
}

// ParentPath returns the parent of an absolute path, or "" for the root.
func ParentPath(p string) string {
	if p == "/" || p == "" {
		return ""
	}
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// BaseName returns the last segment of an absolute path, "" for the root.
func BaseName(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

// EncodePath percent-encodes each segment of p.
func EncodePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// DecodePath percent-decodes p.
func DecodePath(p string) (string, error) {
	return url.PathUnescape(p)
}

// RelativeName returns the path of name relative to base, "." when equal.
func RelativeName(base, name FileName) (string, error) {
	if base.RootURI() != name.RootURI() {
		return "", fmt.Errorf("%w: %s is not on the filesystem of %s", ErrBadPath, name.FriendlyURI(), base.FriendlyURI())
	}

	from := splitPath(base.Path())
	to := splitPath(name.Path())

	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}

	var parts []string
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	if len(parts) == 0 {
		return ".", nil
	}
	return strings.Join(parts, "/"), nil
}

// IsDescendant reports whether name lies strictly below base.
func IsDescendant(base, name FileName) bool {
	if base.RootURI() != name.RootURI() {
		return false
	}
	if base.Path() == "/" {
		return name.Path() != "/"
	}
	return strings.HasPrefix(name.Path(), base.Path()+"/")
}

// CheckScope verifies that resolved satisfies scope relative to base.
func CheckScope(base, resolved FileName, scope NameScope) error {
	var ok bool
	switch scope {
	case ScopeFileSystem:
		ok = true
	case ScopeChild:
		ok = ParentPath(resolved.Path()) == base.Path() && IsDescendant(base, resolved)
	case ScopeDescendant:
		ok = IsDescendant(base, resolved)
	case ScopeDescendantOrSelf:
		ok = resolved.Path() == base.Path() || IsDescendant(base, resolved)
	}
	if !ok {
		return fmt.Errorf("%w: %s is out of scope of %s", ErrBadPath, resolved.Path(), base.Path())
	}
	return nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// GenericName is a FileName for filesystems addressed as scheme://root/path.
type GenericName struct {
	scheme string
	root   string
	path   string
	typ    FileType
}

// NewGenericName creates a name. root is everything between "scheme://" and the path.
func NewGenericName(scheme, root, path string, t FileType) *GenericName {
	if path == "" {
		path = "/"
	}
	return &GenericName{scheme: scheme, root: root, path: path, typ: t}
}

func (n *GenericName) Scheme() string      { return n.scheme }
func (n *GenericName) RootURI() string     { return n.scheme + "://" + n.root }
func (n *GenericName) Path() string        { return n.path }
func (n *GenericName) Type() FileType      { return n.typ }
func (n *GenericName) BaseName() string    { return BaseName(n.path) }
func (n *GenericName) URI() string         { return n.RootURI() + EncodePath(n.path) }
func (n *GenericName) FriendlyURI() string { return n.URI() }
func (n *GenericName) String() string      { return n.URI() }

func (n *GenericName) Parent() FileName {
	parent := ParentPath(n.path)
	if parent == "" {
		return nil
	}
	return n.CreateName(parent, Folder)
}

func (n *GenericName) CreateName(path string, t FileType) FileName {
	return NewGenericName(n.scheme, n.root, path, t)
}
