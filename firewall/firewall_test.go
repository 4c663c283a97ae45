package firewall_test

import (
	"net"
	"testing"

	"github.com/perimetr/gatekeeper/firewall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIDRBlocklist(t *testing.T) {
	t.Parallel()

	list, err := firewall.NewCIDRBlocklist([]string{
		"10.0.0.0/8",
		"192.168.1.15",
		"2001:db8::/32",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Len())

	assert.True(t, list.Contains(net.ParseIP("10.1.2.3")))
	assert.True(t, list.Contains(net.ParseIP("192.168.1.15")))
	assert.True(t, list.Contains(net.ParseIP("2001:db8::1")))

	assert.False(t, list.Contains(net.ParseIP("192.168.1.16")))
	assert.False(t, list.Contains(net.ParseIP("8.8.8.8")))
}

func TestCIDRBlocklistBadInput(t *testing.T) {
	t.Parallel()

	_, err := firewall.NewCIDRBlocklist([]string{"not-a-cidr"})
	assert.Error(t, err)
}

func TestCIDRBlocklistNilIP(t *testing.T) {
	t.Parallel()

	list, err := firewall.NewCIDRBlocklist(nil)
	require.NoError(t, err)

	// An unparseable peer address is treated as hostile.
	assert.True(t, list.Contains(nil))
}
