package domain

import (
	"strings"

	"golang.org/x/net/idna"
)

// Name is a fully-qualified DNS name in the wire codec's native form: a
// leading dot stands in for the root label, e.g. ".www.example.com" or
// "." for the root itself. This is the shape the bundled test vectors
// decode to, and it composes naturally with the resolver's suffix walk
// (Name.Suffixes() adds exactly one label per hop).
type Name string

// NewName canonicalizes raw user- or config-supplied input (which may or
// may not carry a leading or trailing dot, and may contain
// internationalized labels) into the leading-dot wire form.
func NewName(s string) Name {
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return Name(".")
	}
	labels := strings.Split(s, ".")
	for i, l := range labels {
		folded, err := idna.Lookup.ToASCII(l)
		if err == nil {
			labels[i] = folded
		}
	}
	return Name("." + strings.Join(labels, "."))
}

// Root is the zero-label name.
const Root Name = "."

// String returns the leading-dot wire form.
func (n Name) String() string {
	return string(n)
}

// Labels splits the name into its component labels, root yielding none.
func (n Name) Labels() []string {
	s := strings.TrimPrefix(string(n), ".")
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// IsRoot reports whether n is the zero-label root name.
func (n Name) IsRoot() bool {
	return n == Root
}

// Parent returns the name with its leftmost label removed, moving one
// label up toward the root. Parent of a single-label name, and of root,
// is root.
func (n Name) Parent() Name {
	labels := n.Labels()
	if len(labels) <= 1 {
		return Root
	}
	return Name("." + strings.Join(labels[1:], "."))
}

// Suffixes returns every suffix of n from the TLD down to n itself,
// e.g. ".a.b.example.com" yields [".com", ".example.com",
// ".b.example.com", ".a.b.example.com"]. The resolver walks this slice
// in order when descending the delegation hierarchy.
func (n Name) Suffixes() []Name {
	labels := n.Labels()
	out := make([]Name, 0, len(labels))
	for i := len(labels) - 1; i >= 0; i-- {
		out = append(out, Name("."+strings.Join(labels[i:], ".")))
	}
	return out
}

// CacheKey returns the case-folded form used to key the cache and to
// compare names for equality, per the wire format's case-insensitive
// comparison rule (case is still preserved in Name itself, for replies
// that echo the question verbatim).
func (n Name) CacheKey() string {
	return strings.ToLower(string(n))
}

// Equal compares two names case-insensitively.
func (n Name) Equal(other Name) bool {
	return n.CacheKey() == other.CacheKey()
}
