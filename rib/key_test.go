package rib

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefix(t *testing.T) {
	t.Parallel()

	for _, tcase := range []*struct {
		In        string
		ExpFamily Family
		ExpText   string
		ExpLen    int
	}{
		{"192.168.1.0/24", IPv4, "192.168.1.0/24", 24},
		{"192.168.1.5/24", IPv4, "192.168.1.0/24", 24},
		{"10.11.12.13", IPv4, "10.11.12.13/32", 32},
		{"0.0.0.0/0", IPv4, "0.0.0.0/0", 0},
		{"2a01:db8::/32", IPv6, "2a01:db8::/32", 32},
		{"2a01:db8:acad::1/64", IPv6, "2a01:db8:acad::/64", 64},
		{"::1", IPv6, "::1/128", 128},
		{"::/0", IPv6, "::/0", 0},
	} {
		tcase := tcase

		t.Run(tcase.In, func(t *testing.T) {
			key, family, text, err := ParsePrefix(tcase.In)

			require.NoError(t, err)
			assert.Equal(t, tcase.ExpFamily, family)
			assert.Equal(t, tcase.ExpText, text)
			assert.Equal(t, tcase.ExpLen, key.Len())
		})
	}
}

func TestParsePrefix_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "nope", "300.1.2.3", "1.2.3.4/33", "2a01::/129", "1.2.3/24"} {
		in := in

		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			_, _, _, err := ParsePrefix(in)

			assert.True(t, errors.Is(err, ErrInvalidPrefix), "got %v", err)
		})
	}
}

func TestKeyBit(t *testing.T) {
	t.Parallel()

	key, _, _, err := ParsePrefix("192.0.2.0/24") // 192 = 11000000
	require.NoError(t, err)

	assert.Equal(t, byte(1), key.Bit(0))
	assert.Equal(t, byte(1), key.Bit(1))
	assert.Equal(t, byte(0), key.Bit(2))

	key6, _, _, err := ParsePrefix("::1/128")
	require.NoError(t, err)

	assert.Equal(t, byte(0), key6.Bit(0))
	assert.Equal(t, byte(0), key6.Bit(126))
	assert.Equal(t, byte(1), key6.Bit(127))
}

func TestKeySliceAppend(t *testing.T) {
	t.Parallel()

	// 80 one-bits, slicing and splicing across the 64-bit word boundary
	key, _, _, err := ParsePrefix("ffff:ffff:ffff:ffff:ffff::/80")
	require.NoError(t, err)

	mid := key.Slice(60, 70)
	require.Equal(t, 10, mid.Len())
	for i := 0; i < 10; i++ {
		assert.Equal(t, byte(1), mid.Bit(i), "bit %d", i)
	}

	// a key must survive being cut at any point and reassembled
	for _, cut := range []int{0, 1, 31, 63, 64, 65, 79} {
		glued := key.Slice(0, cut).Append(bitKey(key.Bit(cut))).Append(key.Slice(cut+1, key.Len()))

		assert.Equal(t, key, glued, "cut at %d", cut)
	}
}

func TestCommonPrefixLen(t *testing.T) {
	t.Parallel()

	for _, tcase := range []*struct {
		A, B string
		Exp  int
	}{
		{"192.168.0.0/24", "192.168.1.0/24", 23},
		{"192.168.0.0/24", "192.168.0.0/16", 16},
		{"0.0.0.0/0", "255.0.0.0/8", 0},
		{"2a01:db8::/32", "2a01:db8:acad::/48", 32},
		{"2a01:db8::/32", "2a01::/16", 16},
		{"2a01:db8:acad:1:2:3::/96", "2a01:db8:acad:1:2:4::/96", 93},
	} {
		tcase := tcase

		t.Run(tcase.A+","+tcase.B, func(t *testing.T) {
			a, _, _, err := ParsePrefix(tcase.A)
			require.NoError(t, err)
			b, _, _, err := ParsePrefix(tcase.B)
			require.NoError(t, err)

			assert.Equal(t, tcase.Exp, CommonPrefixLen(a, b))
			assert.Equal(t, tcase.Exp, CommonPrefixLen(b, a))
		})
	}
}

func TestDontCareBits(t *testing.T) {
	t.Parallel()

	wc, _, err := ParseAddr("0.0.3.255")
	require.NoError(t, err)
	assert.Equal(t, 10, dontCareBits(wc))

	all, _, err := ParseAddr("255.255.255.255")
	require.NoError(t, err)
	assert.Equal(t, 32, dontCareBits(all))
}
