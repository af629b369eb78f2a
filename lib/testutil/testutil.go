package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/mazen160/go-random"
)

// RandomSwitch returns a function that will output various integers at different weights.
//
// Ex. RandomSwitch(2, 3, 5) will return a function that will output:
//   - `0` 20% of the time
//   - `1` 30% of the time
//   - `2` 50% of the time
func RandomSwitch(weights ...int) func(rndm *rand.Rand) int {
	if len(weights) == 0 {
		panic("a random switch must have at least 1 probability")
	}

	var sum int
	for _, p := range weights {
		if p == 0 {
			panic("cannot have weight that is 0")
		}
		sum += p
	}

	return func(rndm *rand.Rand) int {
		value := rndm.Intn(sum)

		threshold := 0
		for i := 0; i < len(weights); i++ {
			threshold += weights[i]
			if value < threshold {
				return i
			}
		}

		panic(fmt.Sprintf("random value generated was out of bounds: %d", value))
	}
}

// RandomID returns a random alphanumeric identifier with the given prefix.
func RandomID(t testing.TB, prefix string, length int) string {
	t.Helper()
	id, err := random.String(length)
	if err != nil {
		t.Fatal(err)
	}
	return prefix + id
}

// RandomMoney returns a display amount like "$12,345.67" along with the
// number of cents it denotes.
func RandomMoney(rndm *rand.Rand) (string, int64) {
	cents := rndm.Int63n(100_000_000)
	dollars := fmt.Sprint(cents / 100)

	var grouped strings.Builder
	for i, c := range dollars {
		if i > 0 && (len(dollars)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}
	return fmt.Sprintf("$%s.%02d", grouped.String(), cents%100), cents
}
