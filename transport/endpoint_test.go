// File: transport/endpoint_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/transport"
)

func TestParseUnix(t *testing.T) {
	ep, err := transport.ParseURL("unix:///tmp/rpc.sock")
	require.NoError(t, err)
	assert.Equal(t, transport.FamilyUnix, ep.Family)
	assert.Equal(t, "/tmp/rpc.sock", ep.Path)

	// Anything after the first colon is routing data, not socket path.
	ep, err = transport.ParseURL("unix:///tmp/rpc.sock:/some/key")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rpc.sock", ep.Path)
}

func TestParseTCP4(t *testing.T) {
	ep, err := transport.ParseURL("tcp://127.0.0.1:9999")
	require.NoError(t, err)
	assert.Equal(t, transport.FamilyInet4, ep.Family)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), ep.Addr)
	assert.Equal(t, uint16(9999), ep.Port)

	ep, err = transport.ParseURL("tcp://10.0.0.1:80:/suffix")
	require.NoError(t, err)
	assert.Equal(t, uint16(80), ep.Port)
}

func TestParseTCP6(t *testing.T) {
	ep, err := transport.ParseURL("tcp://[::1]:45002")
	require.NoError(t, err)
	assert.Equal(t, transport.FamilyInet6, ep.Family)
	assert.Equal(t, netip.MustParseAddr("::1"), ep.Addr)
	assert.Equal(t, uint16(45002), ep.Port)
}

func TestParseFailures(t *testing.T) {
	for _, url := range []string{
		"",
		"http://127.0.0.1:80",
		"tcp://127.0.0.1",
		"tcp://[::1]",
		"tcp://[::1]45002",
		"tcp://1.2.3.4:notaport",
	} {
		_, err := transport.ParseURL(url)
		assert.ErrorIs(t, err, api.ErrInvalidURL, "url %q", url)
	}

	for _, url := range []string{
		"unix://",
		"tcp://999.0.0.1:80",
		"tcp://nothost:80",
		"tcp://[::1::2]:80",
		"tcp://[1.2.3.4]:80",
	} {
		_, err := transport.ParseURL(url)
		assert.ErrorIs(t, err, api.ErrInvalidAddress, "url %q", url)
	}
}

func TestEndpointEqualAndString(t *testing.T) {
	a, err := transport.ParseURL("tcp://127.0.0.1:45001")
	require.NoError(t, err)
	b, err := transport.ParseURL("tcp://127.0.0.1:45001:/suffix")
	require.NoError(t, err)
	c, err := transport.ParseURL("tcp://127.0.0.1:45002")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "tcp://127.0.0.1:45001", a.String())

	u, err := transport.ParseURL("unix:///tmp/a.sock")
	require.NoError(t, err)
	assert.False(t, u.Equal(a))
	assert.Equal(t, "unix:///tmp/a.sock", u.String())
}
