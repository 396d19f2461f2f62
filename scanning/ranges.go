package scanning

import (
	"fmt"
	"iter"
	"net/netip"
	"strings"

	"dev.hon.one/radar/common"
)

// MaxExpandHosts - Largest range ExpandRange will materialize. Walk bigger ranges with HostRange.All.
const MaxExpandHosts = 1 << 16

// HostRange - The usable host addresses of an IPv4 prefix, walked lazily.
type HostRange struct {
	prefix netip.Prefix
	first  netip.Addr
	count  int
}

// ParseRange - Parse an IPv4 CIDR range. Host bits are masked off.
// Network and broadcast addresses are skipped, except for /31 and /32 where every address is a host.
func ParseRange(cidr string) (HostRange, error) {
	trimmed := strings.TrimSpace(cidr)
	if !strings.Contains(trimmed, "/") {
		return HostRange{}, &common.RangeError{Range: cidr, Reason: "missing prefix length"}
	}
	prefix, err := netip.ParsePrefix(trimmed)
	if err != nil {
		return HostRange{}, &common.RangeError{Range: cidr, Reason: err.Error()}
	}
	if !prefix.Addr().Is4() {
		return HostRange{}, &common.RangeError{Range: cidr, Reason: "only IPv4 ranges are supported"}
	}
	prefix = prefix.Masked()

	count := HostCount(prefix.Bits())
	if count <= 0 {
		return HostRange{}, &common.RangeError{Range: cidr, Reason: "no usable host addresses"}
	}
	first := prefix.Addr()
	if prefix.Bits() < 31 {
		// Skip network address
		first = first.Next()
	}
	return HostRange{prefix: prefix, first: first, count: count}, nil
}

// Prefix - The masked prefix.
func (hostRange HostRange) Prefix() netip.Prefix {
	return hostRange.prefix
}

// Len - Number of host addresses.
func (hostRange HostRange) Len() int {
	return hostRange.count
}

// All - Host addresses in ascending order. Nothing is allocated per address.
func (hostRange HostRange) All() iter.Seq[netip.Addr] {
	return func(yield func(netip.Addr) bool) {
		addr := hostRange.first
		for i := 0; i < hostRange.count; i++ {
			if !yield(addr) {
				return
			}
			addr = addr.Next()
		}
	}
}

// ExpandRange - Expand an IPv4 CIDR range into its usable host addresses, ascending.
// Ranges with more than MaxExpandHosts hosts are refused.
func ExpandRange(cidr string) ([]netip.Addr, error) {
	hostRange, err := ParseRange(cidr)
	if err != nil {
		return nil, err
	}
	if hostRange.Len() > MaxExpandHosts {
		return nil, &common.RangeError{Range: cidr, Reason: fmt.Sprintf("%v hosts is too many to expand at once", hostRange.Len())}
	}

	hosts := make([]netip.Addr, 0, hostRange.Len())
	for addr := range hostRange.All() {
		hosts = append(hosts, addr)
	}
	return hosts, nil
}

// HostCount - Number of usable IPv4 host addresses for a prefix length.
func HostCount(bits int) int {
	switch {
	case bits < 0 || bits > 32:
		return 0
	case bits == 32:
		return 1
	case bits == 31:
		return 2
	}
	return (1 << (32 - bits)) - 2
}
