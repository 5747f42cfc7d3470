package randomutil

import (
	"math/rand"
)

// RandomGenerator produces the cache-busting numbers appended to outbound bidder calls.
type RandomGenerator interface {
	GenerateInt63() int64
	GenerateInt63n(n int64) int64
}

type RandomNumberGenerator struct{}

func (RandomNumberGenerator) GenerateInt63() int64 {
	return rand.Int63()
}

// GenerateInt63n returns a value in [0,n). It panics if n <= 0, like rand.Int63n.
func (RandomNumberGenerator) GenerateInt63n(n int64) int64 {
	return rand.Int63n(n)
}

// FixedGenerator always returns Value. It lets tests pin cache busters.
type FixedGenerator struct {
	Value int64
}

func (g FixedGenerator) GenerateInt63() int64 {
	return g.Value
}

func (g FixedGenerator) GenerateInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return g.Value % n
}
