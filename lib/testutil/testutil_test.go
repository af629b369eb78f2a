package testutil

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomMoney(t *testing.T) {
	rndm := rand.New(rand.NewSource(7))
	for range 200 {
		text, cents := RandomMoney(rndm)
		require.True(t, strings.HasPrefix(text, "$"))
		digits := strings.NewReplacer("$", "", ",", "", ".", "").Replace(text)
		require.Equal(t, cents, mustAtoi(t, digits))
	}
}

func mustAtoi(t *testing.T, s string) int64 {
	var n int64
	for _, c := range s {
		require.True(t, c >= '0' && c <= '9', s)
		n = n*10 + int64(c-'0')
	}
	return n
}

func TestRandomSwitch(t *testing.T) {
	rndm := rand.New(rand.NewSource(1))
	choose := RandomSwitch(1, 1)
	seen := map[int]bool{}
	for range 100 {
		seen[choose(rndm)] = true
	}
	require.Equal(t, map[int]bool{0: true, 1: true}, seen)
}

func TestRandomID(t *testing.T) {
	id := RandomID(t, "AU_", 8)
	require.True(t, strings.HasPrefix(id, "AU_"))
	require.Len(t, id, 11)
}
