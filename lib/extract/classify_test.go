package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		description string
		id          string
		expected    TransactionType
	}{
		{"ShopBack Vouchers: Woolworths", "", GiftCard},
		// earlier rules win over later ones.
		{"ShopBack Vouchers: Referral Pack", "AU_1", GiftCard},
		{"Code used: WELCOME10", "", Bonus},
		{"Code used: Referral", "", Bonus},
		{"Referral bonus for Sam", "", Referral},
		{"Referral Challenge", "", Referral},
		{"Spend Challenge complete", "", Challenge},
		{"Weekly boost", "AU_9981", Bonus},
		{"Weekly boost", "Code used: X", Bonus},
		{"Amazon AU", "ABC-123", Purchase},
		{"", "", Purchase},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, Classify(test.description, test.id), test.description)
	}
}

func TestTransactionID(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"ShopBack Vouchers: GIFT-42", "GIFT-42"},
		{"Code used: WELCOME10", "WELCOME10"},
		{"  AU_CHALLENGE_7 ", "AU_CHALLENGE_7"},
		{"Order ID: ABC-123", "ABC-123"},
		{"ID:xyz_9", "xyz_9"},
		{"Tracked!", ""},
		{"", ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, TransactionID(test.input), test.input)
	}
}
