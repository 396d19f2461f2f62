package scanning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const ipLinkShowOutput = `1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 qdisc noqueue state UNKNOWN mode DEFAULT group default qlen 1000
    link/loopback 00:00:00:00:00:00 brd 00:00:00:00:00:00
2: eth0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc fq_codel state UP mode DEFAULT group default qlen 1000
    link/ether AA:BB:CC:DD:EE:FF brd ff:ff:ff:ff:ff:ff
3: wlan0: <BROADCAST,MULTICAST> mtu 1500 qdisc noop state DOWN mode DORMANT group default qlen 1000
    link/ether 12:34:56:78:9a:bc brd ff:ff:ff:ff:ff:ff permaddr 12:34:56:78:9a:bd
4: ib0: <BROADCAST,MULTICAST> mtu 4092 qdisc noop state DOWN mode DEFAULT group default qlen 256
    link/infiniband 80:00:02:08:fe:80:00:00:00:00:00:00:00:02:c9:03:00:0a:0b:0c brd 00:ff:ff:ff:ff:12:40:1b:ff:ff:ff:ff:00:00:00:00:ff:ff:ff:ff
`

func TestExtractMACsFromIPLinkShow(t *testing.T) {
	macs := ExtractMACs(ipLinkShowOutput)
	assert.Equal(t, []string{
		"00:00:00:00:00:00",
		"aa:bb:cc:dd:ee:ff",
		"ff:ff:ff:ff:ff:ff",
		"12:34:56:78:9a:bc",
		"12:34:56:78:9a:bd",
	}, macs)
}

func TestExtractMACsCaseInsensitive(t *testing.T) {
	assert.Equal(t, []string{"aa:bb:cc:dd:ee:ff"}, ExtractMACs("ether Aa:bB:cC:Dd:eE:Ff\nether aa:bb:cc:dd:ee:ff\n"))
}

func TestExtractMACsIgnoresMalformed(t *testing.T) {
	for _, output := range []string{
		"",
		"no addresses here",
		"aa:bb:cc:dd:ee",
		"aa:bb:cc:dd:ee:gg",
		"aa-bb-cc-dd-ee-ff",
		"aabb.ccdd.eeff",
		"aa:bb:cc:dd:ee:ff:00",
		"xaa:bb:cc:dd:ee:ff",
		"fe80::aabb:ccff:fedd:eeff/64",
	} {
		macs := ExtractMACs(output)
		assert.NotNil(t, macs, output)
		assert.Empty(t, macs, output)
	}
}

func TestExtractMACsIfconfigStyle(t *testing.T) {
	output := "eth0      Link encap:Ethernet  HWaddr 02:42:AC:11:00:02\n" +
		"en0: flags=8863<UP,BROADCAST,SMART,RUNNING,SIMPLEX,MULTICAST> mtu 1500\n\tether 3c:22:fb:01:02:03\n"
	assert.Equal(t, []string{"02:42:ac:11:00:02", "3c:22:fb:01:02:03"}, ExtractMACs(output))
}
