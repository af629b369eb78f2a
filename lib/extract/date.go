package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// To24Hour converts a 12-hour clock hour. 12 AM is midnight (0), 12 PM is
// noon (12), any other PM hour gains 12.
func To24Hour(hour int, period string) (int, error) {
	if hour < 1 || hour > 12 {
		return 0, fmt.Errorf("hour %d is not on a 12-hour clock", hour)
	}
	switch strings.ToUpper(period) {
	case "AM":
		if hour == 12 {
			return 0, nil
		}
		return hour, nil
	case "PM":
		if hour == 12 {
			return 12, nil
		}
		return hour + 12, nil
	}
	return 0, fmt.Errorf("unknown period %q", period)
}

// the order list renders "12 Mar 2024 1:05PM", sometimes with a space
// before the period.
var orderDateRegex = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})\s+(\d{1,2}):(\d{2})\s*([AaPp][Mm])`)

// NormalizeOrderDate converts an order card date into "DD-Mon-YYYY HH:MM"
// on a 24-hour clock. the month is kept as rendered.
func NormalizeOrderDate(text string) (string, error) {
	groups := orderDateRegex.FindStringSubmatch(text)
	if groups == nil {
		return "", fmt.Errorf("unrecognized order date %q", text)
	}
	day, _ := strconv.Atoi(groups[1])
	hour, _ := strconv.Atoi(groups[4])
	hour, err := To24Hour(hour, groups[6])
	if err != nil {
		return "", fmt.Errorf("order date %q: %w", text, err)
	}
	return fmt.Sprintf("%02d-%s-%s %02d:%s", day, groups[2], groups[3], hour, groups[5]), nil
}

var ledgerClockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp][Mm])?$`)

// NormalizeLedgerDate joins the ledger's "<day> <Month>" and "HH:MM" cells
// with the year taken from the last year heading.
func NormalizeLedgerDate(dayMonth, clock, year string) (string, error) {
	parts := strings.Fields(dayMonth)
	if len(parts) < 2 {
		return "", fmt.Errorf("unrecognized ledger day %q", dayMonth)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("unrecognized ledger day %q", dayMonth)
	}

	groups := ledgerClockRegex.FindStringSubmatch(strings.TrimSpace(clock))
	if groups == nil {
		return "", fmt.Errorf("unrecognized ledger time %q", clock)
	}
	hour, _ := strconv.Atoi(groups[1])
	if groups[3] != "" {
		hour, err = To24Hour(hour, groups[3])
		if err != nil {
			return "", fmt.Errorf("ledger time %q: %w", clock, err)
		}
	}
	return fmt.Sprintf("%02d-%s-%s %02d:%s", day, parts[1], year, hour, groups[2]), nil
}

var confirmedByRegex = regexp.MustCompile(`Confirmed by (\d{1,2}) ([A-Za-z]+) (\d{4})`)

// ConfirmationDate pulls "Confirmed by 03 March 2024" out of a ledger
// description. the page only gives a day, so the time is fixed at 00:01.
func ConfirmationDate(text string) string {
	groups := confirmedByRegex.FindStringSubmatch(text)
	if groups == nil {
		return ""
	}
	day, _ := strconv.Atoi(groups[1])
	return fmt.Sprintf("%02d-%s-%s 00:01", day, groups[2], groups[3])
}
