package macaddr_test

import (
	"net"
	"testing"

	"github.com/packetio/l2fwd/core/macaddr"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert := assert.New(t)

	mac, e := net.ParseMAC("00:00:5e:00:53:01")
	assert.NoError(e)
	assert.True(macaddr.IsValid(mac))
	assert.True(macaddr.IsUnicast(mac))
	assert.False(macaddr.IsMulticast(mac))

	mcast, _ := net.ParseMAC("01:00:5e:00:00:01")
	assert.True(macaddr.IsMulticast(mcast))
	assert.False(macaddr.IsUnicast(mcast))

	assert.False(macaddr.IsValid(net.HardwareAddr{0x01, 0x02}))
	assert.False(macaddr.IsUnicast(net.HardwareAddr{0, 0, 0, 0, 0, 0}))
}

func TestMakeRandom(t *testing.T) {
	assert := assert.New(t)

	u := macaddr.MakeRandom(false)
	assert.True(macaddr.IsUnicast(u))
	m := macaddr.MakeRandom(true)
	assert.True(macaddr.IsMulticast(m))
}

func TestPlaceholder(t *testing.T) {
	assert := assert.New(t)

	a := macaddr.Placeholder(7)
	assert.True(macaddr.IsUnicast(a))
	assert.Equal(net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x07}, a)
	assert.NotEqual(macaddr.Placeholder(8), a)
}
