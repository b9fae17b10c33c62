package route

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xy-planning-network/waypoint"
)

// A Rewrite replaces request paths matching Pattern with Replacement
// before they are resolved.
// Replacement may reference capture groups as regexp.Regexp.ReplaceAllString does.
type Rewrite struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewRewrite compiles pattern into a Rewrite.
func NewRewrite(pattern, replacement string) (Rewrite, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rewrite{}, fmt.Errorf("%w: rewrite pattern %q: %s", waypoint.ErrBadConfig, pattern, err)
	}

	return Rewrite{Pattern: re, Replacement: replacement}, nil
}

// A Normalizer turns the path of a request into the path resolved against a Tree.
type Normalizer struct {
	// BasePath is stripped from the front of every path.
	BasePath string

	// DefaultRoute is resolved in place of a path with no segments.
	// It does not start with "/".
	DefaultRoute string

	// Rewrites are tried in order; only the first matching is applied.
	Rewrites []Rewrite
}

// Normalize strips n.BasePath from p, applies the first matching Rewrite,
// and substitutes n.DefaultRoute if nothing is left.
//
// Rewrite patterns see the path with its leading "/".
func (n Normalizer) Normalize(p string) string {
	p = n.StripBase(p)

	for _, rw := range n.Rewrites {
		if rw.Pattern.MatchString(p) {
			p = rw.Pattern.ReplaceAllString(p, rw.Replacement)
			break
		}
	}

	if len(Segments(p)) == 0 {
		return n.DefaultRoute
	}

	return strings.TrimPrefix(p, "/")
}

// StripBase removes n.BasePath from the front of p,
// only where it ends at a segment boundary.
// The result always starts with "/".
func (n Normalizer) StripBase(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	base := "/" + strings.Trim(n.BasePath, "/")
	if base == "/" {
		return p
	}

	if p == base {
		return "/"
	}

	if strings.HasPrefix(p, base+"/") {
		return strings.TrimPrefix(p, base)
	}

	return p
}
