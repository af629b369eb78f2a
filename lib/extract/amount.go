package extract

import (
	"math/big"
	"regexp"
	"strings"
)

// Amount is an exact decimal money value, the zero value is 0.
type Amount struct {
	r *big.Rat
}

var amountStripper = strings.NewReplacer("$", "", ",", "", " ", "", " ", "")
var decimalRegex = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseAmount strips the currency symbol and thousands separators and
// parses what is left. empty or malformed input is 0.
func ParseAmount(text string) Amount {
	cleaned := amountStripper.Replace(strings.TrimSpace(text))
	if !decimalRegex.MatchString(cleaned) {
		return Amount{}
	}
	r, ok := new(big.Rat).SetString(cleaned)
	if !ok {
		return Amount{}
	}
	return Amount{r: r}
}

func (a Amount) rat() *big.Rat {
	if a.r == nil {
		return new(big.Rat)
	}
	return a.r
}

func (a Amount) Add(b Amount) Amount {
	return Amount{r: new(big.Rat).Add(a.rat(), b.rat())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{r: new(big.Rat).Sub(a.rat(), b.rat())}
}

func (a Amount) Cmp(b Amount) int {
	return a.rat().Cmp(b.rat())
}

func (a Amount) IsZero() bool {
	return a.rat().Sign() == 0
}

// Cents is the amount in whole cents, rounded toward zero.
func (a Amount) Cents() int64 {
	scaled := new(big.Rat).Mul(a.rat(), big.NewRat(100, 1))
	return new(big.Int).Quo(scaled.Num(), scaled.Denom()).Int64()
}

// String renders two decimal places, "12.50".
func (a Amount) String() string {
	return a.rat().FloatString(2)
}

// Promotions is whatever part of the amount paid is not explained by
// the subtotal and the cashback spent, totalPaid - (subtotal + cashbackUsed).
func Promotions(totalPaid, subtotal, cashbackUsed string) Amount {
	return ParseAmount(totalPaid).Sub(ParseAmount(subtotal).Add(ParseAmount(cashbackUsed)))
}
