package rib

import (
	"encoding/binary"
	"math/bits"
	"net/netip"

	"github.com/hideo55/go-popcount"
	"github.com/pkg/errors"
)

// Family selects the address family a table operates on.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

// Width returns the family's address width in bits.
func (f Family) Width() int {
	if f == IPv4 {
		return 32
	}
	return 128
}

func (f Family) String() string {
	if f == IPv4 {
		return "IPv4"
	}
	return "IPv6"
}

// Key is a fixed-width big-endian bit string held in two 64-bit words.
// Bit 0 is the most significant bit of hi; only the first n bits are
// significant and the rest are kept zero, so keys compare with ==.
// A Key stores either a masked prefix or a PATRICIA skip label.
type Key struct {
	hi, lo uint64
	n      int
}

// Len returns the number of significant bits.
func (k Key) Len() int { return k.n }

// Bit returns the i-th bit counted from the most significant end.
func (k Key) Bit(i int) byte {
	if i < 64 {
		return byte(k.hi >> (63 - i) & 1)
	}
	return byte(k.lo >> (127 - i) & 1)
}

// Slice extracts bits [from, to) realigned to the most significant end.
func (k Key) Slice(from, to int) Key {
	s := shiftLeft(k, from)
	s.n = to - from
	return s.masked()
}

// Append concatenates another bit string after this one.
func (k Key) Append(o Key) Key {
	s := shiftRight(o, k.n)
	k.hi |= s.hi
	k.lo |= s.lo
	k.n += o.n
	return k
}

// Compare orders keys by their bits numerically, shorter first on ties.
func (k Key) Compare(o Key) int {
	switch {
	case k.hi < o.hi:
		return -1
	case k.hi > o.hi:
		return 1
	case k.lo < o.lo:
		return -1
	case k.lo > o.lo:
		return 1
	case k.n < o.n:
		return -1
	case k.n > o.n:
		return 1
	}
	return 0
}

// masked clears the bits beyond the key length.
func (k Key) masked() Key {
	switch {
	case k.n <= 0:
		k.hi, k.lo, k.n = 0, 0, 0
	case k.n < 64:
		k.hi &= ^uint64(0) << (64 - k.n)
		k.lo = 0
	case k.n == 64:
		k.lo = 0
	case k.n < 128:
		k.lo &= ^uint64(0) << (128 - k.n)
	}
	return k
}

func shiftLeft(k Key, s int) Key {
	switch {
	case s == 0:
	case s < 64:
		k.hi = k.hi<<s | k.lo>>(64-s)
		k.lo <<= s
	case s < 128:
		k.hi = k.lo << (s - 64)
		k.lo = 0
	default:
		k.hi, k.lo = 0, 0
	}
	return k
}

func shiftRight(k Key, s int) Key {
	switch {
	case s == 0:
	case s < 64:
		k.lo = k.lo>>s | k.hi<<(64-s)
		k.hi >>= s
	case s < 128:
		k.lo = k.hi >> (s - 64)
		k.hi = 0
	default:
		k.hi, k.lo = 0, 0
	}
	return k
}

// bitKey returns a one-bit key holding b.
func bitKey(b byte) Key {
	if b != 0 {
		return Key{hi: 1 << 63, n: 1}
	}
	return Key{n: 1}
}

// CommonPrefixLen returns the number of leading bits shared by two keys,
// capped by the shorter one.
func CommonPrefixLen(a, b Key) int {
	n := a.n
	if b.n < n {
		n = b.n
	}
	c := bits.LeadingZeros64(a.hi ^ b.hi)
	if c == 64 {
		c += bits.LeadingZeros64(a.lo ^ b.lo)
	}
	if c > n {
		c = n
	}
	return c
}

// mismatchUnderMask reports whether label differs from span at any
// position the wildcard does not mark as don't-care.
func mismatchUnderMask(label, span, wild Key) bool {
	return (label.hi^span.hi)&^wild.hi != 0 || (label.lo^span.lo)&^wild.lo != 0
}

// dontCareBits counts the set positions of a wildcard mask.
func dontCareBits(wc Key) int {
	return int(popcount.Count(wc.hi) + popcount.Count(wc.lo))
}

// ParsePrefix decodes a textual CIDR prefix or bare address into its
// masked bits, family and canonical text. A bare address is a
// full-width prefix. Address parsing and formatting is delegated to
// net/netip, host bits are masked off before use.
func ParsePrefix(text string) (Key, Family, string, error) {
	pfx, err := netip.ParsePrefix(text)
	if err != nil {
		addr, aerr := netip.ParseAddr(text)
		if aerr != nil {
			return Key{}, 0, "", errors.Wrapf(ErrInvalidPrefix, "%q", text)
		}
		pfx = netip.PrefixFrom(addr, addr.BitLen())
	}
	pfx = pfx.Masked()
	key, family := keyFromPrefix(pfx)
	return key, family, pfx.String(), nil
}

// ParseAddr decodes a bare address into full-width bits. It also accepts
// wildcard masks written in address notation.
func ParseAddr(text string) (Key, Family, error) {
	addr, err := netip.ParseAddr(text)
	if err != nil {
		return Key{}, 0, errors.Wrapf(ErrInvalidPrefix, "%q", text)
	}
	key, family := keyFromPrefix(netip.PrefixFrom(addr, addr.BitLen()))
	return key, family, nil
}

func keyFromPrefix(pfx netip.Prefix) (Key, Family) {
	addr := pfx.Addr()
	if addr.Is4() {
		a4 := addr.As4()
		key := Key{hi: uint64(binary.BigEndian.Uint32(a4[:])) << 32, n: pfx.Bits()}
		return key.masked(), IPv4
	}
	a16 := addr.As16()
	key := Key{
		hi: binary.BigEndian.Uint64(a16[:8]),
		lo: binary.BigEndian.Uint64(a16[8:]),
		n:  pfx.Bits(),
	}
	return key.masked(), IPv6
}

// parseWildcard decodes the address/wildcard pair of a wildcard match
// and checks both against the table family.
func parseWildcard(family Family, address, wildcard string) (Key, Key, error) {
	addr, af, err := ParseAddr(address)
	if err != nil {
		return Key{}, Key{}, err
	}
	if af != family {
		return Key{}, Key{}, errors.Wrapf(ErrFamilyMismatch, "%s in %s table", address, family)
	}
	wc, wf, err := ParseAddr(wildcard)
	if err != nil {
		return Key{}, Key{}, err
	}
	if wf != family {
		return Key{}, Key{}, errors.Wrapf(ErrFamilyMismatch, "%s in %s table", wildcard, family)
	}
	return addr, wc, nil
}
