package domain

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHostPorts_SingleToken(t *testing.T) {
	got, err := ParseHostPorts("127.0.0.1:11211")
	require.NoError(t, err)
	assert.Equal(t, []HostPort{{Host: "127.0.0.1", Port: 11211}}, got)
}

func TestParseHostPorts_DelimiterAgnostic(t *testing.T) {
	comma, err := ParseHostPorts("a:1,b:2")
	require.NoError(t, err)
	space, err := ParseHostPorts("a:1 b:2")
	require.NoError(t, err)
	mixed, err := ParseHostPorts(" a:1 ,, b:2 ")
	require.NoError(t, err)

	want := []HostPort{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	assert.Equal(t, want, comma)
	assert.Equal(t, want, space)
	assert.Equal(t, want, mixed)
}

func TestParseHostPorts_RoundTrip(t *testing.T) {
	for _, hp := range []HostPort{
		{Host: "localhost", Port: 0},
		{Host: "cache-01.internal", Port: 11211},
		{Host: "10.1.2.3", Port: 65535},
		{Host: "", Port: 80},
	} {
		got, err := ParseHostPorts(hp.String())
		require.NoError(t, err, hp.String())
		require.Len(t, got, 1)
		assert.Equal(t, hp, got[0])
	}
}

func TestParseHostPorts_Empty(t *testing.T) {
	got, err := ParseHostPorts("  , ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseHostPorts_Malformed(t *testing.T) {
	for _, in := range []string{"a", "a:b", "a:1:2", "a:1,b", "a:-1", "a:70000"} {
		_, err := ParseHostPorts(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrMalformedSpec), "input %q: %v", in, err)

		var se *SpecError
		assert.True(t, errors.As(err, &se), in)
	}
}

func TestParseHosts_Wildcard(t *testing.T) {
	got, err := ParseHosts(":*")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsUnspecified())
	assert.Equal(t, 0, got[0].Port)
}

func TestParseHosts_AnyAddressWithPort(t *testing.T) {
	got, err := ParseHosts(":80")
	require.NoError(t, err)
	assert.Equal(t, []Endpoint{AnyEndpoint(80)}, got)
}

func TestParseHosts_DefersResolution(t *testing.T) {
	got, err := ParseHosts("example.invalid:443 10.0.0.1:80")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].IsUnresolved())
	assert.Equal(t, "example.invalid", got[0].Host)
	assert.Equal(t, 443, got[0].Port)

	assert.Equal(t, ResolvedEndpoint(netip.MustParseAddr("10.0.0.1"), 80), got[1])
}

func TestParseHosts_PropagatesMalformed(t *testing.T) {
	_, err := ParseHosts("host")
	assert.ErrorIs(t, err, ErrMalformedSpec)
}

func TestParseWeightedHostPorts(t *testing.T) {
	got, err := ParseWeightedHostPorts("a:1:0.5, b:2")
	require.NoError(t, err)
	assert.Equal(t, []WeightedHostPort{
		{Host: "a", Port: 1, Weight: 0.5},
		{Host: "b", Port: 2, Weight: 1},
	}, got)

	_, err = ParseWeightedHostPorts("a:1:heavy")
	assert.ErrorIs(t, err, ErrMalformedSpec)
}

func TestValidPort(t *testing.T) {
	for _, p := range []int{0, 1, 80, 65535} {
		assert.True(t, ValidPort(p), p)
	}
	for _, p := range []int{-3, -1, 65536, 70000} {
		assert.False(t, ValidPort(p), p)
	}
}
