package rib

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
)

func getCIDRs(total int) []string {
	const seed = 1234567890

	var (
		faker = gofakeit.New(seed)
		cidrs = make([]string, total)
	)

	for i := range cidrs {
		cidrs[i] = fmt.Sprintf("%s/%d", faker.IPv4Address(), faker.Number(8, 32))
	}

	return cidrs
}

func BenchmarkPrefixTree_Add(b *testing.B) {
	var (
		cidrs = getCIDRs(b.N)
		rib   = NewPrefixTree(IPv4)
	)

	b.ResetTimer()

	for _, cidr := range cidrs {
		_ = rib.Add(cidr)
	}
}

func BenchmarkPrefixTree_Get(b *testing.B) {
	var (
		cidrs = getCIDRs(b.N)
		rib   = NewPrefixTree(IPv4)
	)

	for _, cidr := range cidrs {
		_ = rib.Add(cidr)
	}

	b.ResetTimer()

	for _, cidr := range cidrs {
		_, _ = rib.Get(cidr)
	}
}

func BenchmarkRadixTree_Add(b *testing.B) {
	var (
		cidrs = getCIDRs(b.N)
		rib   = NewRadixTree(IPv4)
	)

	b.ResetTimer()

	for _, cidr := range cidrs {
		_ = rib.Add(cidr)
	}
}

func BenchmarkRadixTree_Get(b *testing.B) {
	var (
		cidrs = getCIDRs(b.N)
		rib   = NewRadixTree(IPv4)
	)

	for _, cidr := range cidrs {
		_ = rib.Add(cidr)
	}

	b.ResetTimer()

	for _, cidr := range cidrs {
		_, _ = rib.Get(cidr)
	}
}
