package extract

import (
	"regexp"
	"strings"
)

type TransactionType string

const (
	GiftCard  TransactionType = "Gift Card"
	Bonus     TransactionType = "Bonus"
	Referral  TransactionType = "Referral"
	Challenge TransactionType = "Challenge"
	Purchase  TransactionType = "Purchase"
)

type classifier struct {
	kind  TransactionType
	match func(description, id string) bool
}

// evaluated in order, first match wins.
var classifiers = []classifier{
	{GiftCard, func(d, _ string) bool { return strings.Contains(d, "ShopBack Vouchers:") }},
	{Bonus, func(d, _ string) bool { return strings.HasPrefix(d, "Code used:") }},
	{Referral, func(d, _ string) bool { return strings.Contains(d, "Referral") }},
	{Challenge, func(d, _ string) bool { return strings.Contains(d, "Challenge") }},
	{Bonus, func(_, id string) bool {
		return strings.HasPrefix(id, "AU_") || strings.HasPrefix(id, "Code used:")
	}},
}

// Classify maps a ledger description (and the row's id, if any) to a
// transaction type, Purchase when nothing else matches.
func Classify(description, id string) TransactionType {
	for _, c := range classifiers {
		if c.match(description, id) {
			return c.kind
		}
	}
	return Purchase
}

var trailingIdRegex = regexp.MustCompile(`(?:ID:\s*)?([a-zA-Z0-9_-]+)$`)

// TransactionID finds the identifier in a ledger description line:
// voucher codes, promo codes, AU_ challenge ids or a trailing token.
func TransactionID(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return ""
	case strings.HasPrefix(text, "ShopBack Vouchers:"):
		parts := strings.SplitN(text, ":", 3)
		return strings.TrimSpace(parts[1])
	case strings.HasPrefix(text, "Code used: "):
		return strings.TrimSpace(strings.TrimPrefix(text, "Code used: "))
	case strings.HasPrefix(text, "AU_"):
		return text
	}
	groups := trailingIdRegex.FindStringSubmatch(text)
	if groups == nil {
		return ""
	}
	return groups[1]
}
