package route

import (
	"fmt"
	"net/url"
	"strings"
)

// A Match is the result of resolving a request path against a Tree.
type Match struct {
	// Unit is the path of the leaf the request resolved to.
	Unit string

	// Factory constructs the Unit.
	Factory Factory

	// Segments are the segments left over after the leaf, as they appear in the path.
	Segments []string
}

// A Call is the Handler a Match selected from a Unit and the parameters to call it with.
type Call struct {
	Name    string
	Handler Handler
	Params  []string
}

// Invoke calls the Handler with the Call's parameters.
func (c *Call) Invoke(ctx *Context) (any, error) {
	return c.Handler(ctx, c.Params...)
}

// Candidates lists the member names Lookup tries, in order, for a request using method.
//
// With part as the first of m.Segments, or IndexSegment if there are none, these are
// "<method>$<part>", "$<part>", and "$index".
func (m *Match) Candidates(method string) []string {
	part := m.part()
	out := []string{strings.ToLower(method) + "$" + part, "$" + part}
	if part != IndexSegment {
		out = append(out, "$"+IndexSegment)
	}

	return out
}

// Lookup selects the member of u handling a request using method.
//
// The first of Candidates that u has is selected.
// The first two consume the first of m.Segments; "$index" does not.
// The segments not consumed become the Call's parameters,
// each percent-decoded and trimmed.
//
// Lookup returns ErrNotFound if u has none of Candidates
// and ErrNotCallable if the selected member is nil.
func (m *Match) Lookup(u Unit, method string) (*Call, error) {
	handlers := u.Handlers()
	for i, name := range m.Candidates(method) {
		h, ok := handlers[name]
		if !ok {
			continue
		}

		if h == nil {
			return nil, fmt.Errorf("%w: %s in %q", ErrNotCallable, name, m.Unit)
		}

		rest := m.Segments
		if i < 2 && len(rest) > 0 {
			rest = rest[1:]
		}

		return &Call{Name: name, Handler: h, Params: decodeParams(rest)}, nil
	}

	return nil, fmt.Errorf("%w: no handler for %s %q in %q", ErrNotFound, method, m.part(), m.Unit)
}

func (m *Match) part() string {
	if len(m.Segments) == 0 {
		return IndexSegment
	}

	return unescape(m.Segments[0])
}

func decodeParams(segs []string) []string {
	out := make([]string, 0, len(segs))
	for _, seg := range segs {
		out = append(out, strings.TrimSpace(unescape(seg)))
	}

	return out
}

// unescape percent-decodes seg, returning seg as is if it is not valid.
func unescape(seg string) string {
	if decoded, err := url.PathUnescape(seg); err == nil {
		return decoded
	}

	return seg
}
