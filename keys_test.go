package waypoint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint"
)

func TestFromContext(t *testing.T) {
	// Arrange
	ctx := context.Background()

	// Act + Assert
	require.Empty(t, waypoint.RequestIDFromContext(ctx))
	require.Empty(t, waypoint.IPAddrFromContext(ctx))

	// Arrange
	ctx = context.WithValue(ctx, waypoint.RequestIDKey, "abc")
	ctx = context.WithValue(ctx, waypoint.IpAddrKey, "1.1.1.1")

	// Act + Assert
	require.Equal(t, "abc", waypoint.RequestIDFromContext(ctx))
	require.Equal(t, "1.1.1.1", waypoint.IPAddrFromContext(ctx))
}
