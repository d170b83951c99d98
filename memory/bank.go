package memory

import (
	"strings"

	"github.com/tibbar-gen/tibbar/isa"
)

// Access is a bitmask of the operations a Bank permits.
type Access int

const (
	AccessR Access = 1 << iota
	AccessW
	AccessX
)

// ParseAccess parses the "rx"/"rw"/"rwx" vocabulary from spec.md §6. It
// lives here (rather than package config) because it is also used directly
// by tests and by callers that build Banks programmatically.
func ParseAccess(s string) (Access, bool) {
	switch s {
	case "rx":
		return AccessR | AccessX, true
	case "rw":
		return AccessR | AccessW, true
	case "rwx":
		return AccessR | AccessW | AccessX, true
	default:
		return 0, false
	}
}

func (a Access) Has(bit Access) bool { return a&bit != 0 }

func (a Access) String() string {
	var b strings.Builder
	if a.Has(AccessR) {
		b.WriteByte('r')
	}
	if a.Has(AccessW) {
		b.WriteByte('w')
	}
	if a.Has(AccessX) {
		b.WriteByte('x')
	}
	return b.String()
}

// Bank is a named, contiguous byte range with the permissions spec.md §3
// describes: whether it holds code, data, and what it permits.
type Bank struct {
	Name   string
	Base   isa.Address
	Size   uint64
	Code   bool
	Data   bool
	Access Access
}

// End returns the address one past the bank's last byte.
func (b Bank) End() isa.Address {
	return b.Base.Add(b.Size)
}

// Contains reports whether [addr, addr+n) lies entirely inside b.
func (b Bank) Contains(addr isa.Address, n uint64) bool {
	if addr < b.Base {
		return false
	}
	end := uint64(addr-b.Base) + n
	return end <= b.Size
}
