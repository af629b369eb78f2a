package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTo24Hour(t *testing.T) {
	for hour := 1; hour <= 12; hour++ {
		am, err := To24Hour(hour, "AM")
		require.NoError(t, err)
		pm, err := To24Hour(hour, "PM")
		require.NoError(t, err)

		require.Equal(t, hour%12, am)
		require.Equal(t, hour%12+12, pm)
		require.Less(t, am, 12)
		require.GreaterOrEqual(t, pm, 12)
		require.Less(t, pm, 24)
	}

	_, err := To24Hour(0, "AM")
	require.Error(t, err)
	_, err = To24Hour(13, "PM")
	require.Error(t, err)
	_, err = To24Hour(3, "XM")
	require.Error(t, err)
}

func TestNormalizeOrderDate(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"12 Mar 2024 1:05PM", "12-Mar-2024 13:05"},
		{"5 Jan 2024 12:30 AM", "05-Jan-2024 00:30"},
		{"30 Nov 2023 12:00PM", "30-Nov-2023 12:00"},
		{"Paid on 1 Feb 2022 11:59pm", "01-Feb-2022 23:59"},
		{"9 Oct 2021 9:07AM", "09-Oct-2021 09:07"},
	}
	for _, test := range testCases {
		t.Run(test.input, func(t *testing.T) {
			out, err := NormalizeOrderDate(test.input)
			require.NoError(t, err)
			require.Equal(t, test.expected, out)
		})
	}

	_, err := NormalizeOrderDate("yesterday")
	require.Error(t, err)
	_, err = NormalizeOrderDate("12 Mar 2024 13:05PM")
	require.Error(t, err)
}

var allHoursRegex = regexp.MustCompile(`^01-Jan-2024 (\d{2}):00$`)

func TestNormalizeOrderDateAllHours(t *testing.T) {
	for hour := 1; hour <= 12; hour++ {
		for _, period := range []string{"AM", "PM"} {
			out, err := NormalizeOrderDate(fmt.Sprintf("1 Jan 2024 %d:00%s", hour, period))
			require.NoError(t, err)

			groups := allHoursRegex.FindStringSubmatch(out)
			require.NotNil(t, groups, out)
			h, err := strconv.Atoi(groups[1])
			require.NoError(t, err)
			require.GreaterOrEqual(t, h, 0)
			require.Less(t, h, 24)
			if period == "AM" {
				require.Less(t, h, 12)
			} else {
				require.GreaterOrEqual(t, h, 12)
			}
		}
	}
}

func TestNormalizeLedgerDate(t *testing.T) {
	out, err := NormalizeLedgerDate("3 March", "14:05", "2024")
	require.NoError(t, err)
	require.Equal(t, "03-March-2024 14:05", out)

	out, err = NormalizeLedgerDate("28 December", "9:15 PM", "2023")
	require.NoError(t, err)
	require.Equal(t, "28-December-2023 21:15", out)

	_, err = NormalizeLedgerDate("March", "14:05", "2024")
	require.Error(t, err)
	_, err = NormalizeLedgerDate("3 March", "later", "2024")
	require.Error(t, err)
}

func TestConfirmationDate(t *testing.T) {
	require.Equal(t, "03-April-2024 00:01", ConfirmationDate("Confirmed by 03 April 2024"))
	require.Equal(t, "07-May-2023 00:01", ConfirmationDate("Cashback Confirmed by 7 May 2023 (estimated)"))
	require.Equal(t, "", ConfirmationDate("Tracked"))
}
