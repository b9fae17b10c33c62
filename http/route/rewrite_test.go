package route_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/route"
)

func TestNewRewrite(t *testing.T) {
	_, err := route.NewRewrite("(", "x")
	require.ErrorIs(t, err, waypoint.ErrBadConfig)
}

func TestNormalizerNormalize(t *testing.T) {
	// Arrange
	first, err := route.NewRewrite(`^/u/(\d+)$`, "/admin/users/$1")
	require.Nil(t, err)

	second, err := route.NewRewrite(`^/u/`, "/never/")
	require.Nil(t, err)

	n := route.Normalizer{
		BasePath:     "/app/",
		DefaultRoute: "home",
		Rewrites:     []route.Rewrite{first, second},
	}

	for _, tc := range []struct {
		name     string
		path     string
		expected string
	}{
		{"Empty", "", "home"},
		{"Slash", "/", "home"},
		{"Base-Only", "/app", "home"},
		{"Base-Slash", "/app/", "home"},
		{"Dots-Only", "/app/./..", "home"},
		{"Stripped", "/app/login", "login"},
		{"Not-A-Base-Prefix", "/application/login", "application/login"},
		{"Without-Base", "/login", "login"},
		{"First-Rewrite-Wins", "/app/u/7", "admin/users/7"},
		{"Second-Rewrite", "/app/u/x", "never/x"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, n.Normalize(tc.path))
		})
	}
}

func TestNormalizerDefaultRouteResolvesSame(t *testing.T) {
	// Arrange
	tree := route.NewTree()
	require.Nil(t, tree.Register("home", noopFactory))
	require.Nil(t, tree.Register("index", noopFactory))
	n := route.Normalizer{DefaultRoute: "home"}

	// Act
	fromEmpty, err := tree.Resolve(n.Normalize(""))
	require.Nil(t, err)
	fromHome, err := tree.Resolve(n.Normalize("home"))
	require.Nil(t, err)

	// Assert
	require.Equal(t, fromHome.Unit, fromEmpty.Unit)
	require.Equal(t, fromHome.Segments, fromEmpty.Segments)
}
