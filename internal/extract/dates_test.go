package extract

import (
	"errors"
	"testing"
	"time"
)

func TestIsValidDateString_WithTimezone(t *testing.T) {
	const dateString = "12/9/2024 06:15 PM PST"

	if !IsValidDateString(dateString) {
		t.Fatalf("Expected %q to be valid", dateString)
	}

	got, err := DateFromTimezoneDateString(dateString)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := time.Date(2024, time.December, 10, 2, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got.UTC())
	}

	if _, offset := got.Zone(); offset != -8*60*60 {
		t.Errorf("Expected PST offset -8h, got %ds", offset)
	}
}

func TestDateFromTimezoneDateString_Offsets(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"1/2/2025 9:05 AM EST", time.Date(2025, 1, 2, 14, 5, 0, 0, time.UTC)},
		{"7/4/2025 12:00 PM EDT", time.Date(2025, 7, 4, 16, 0, 0, 0, time.UTC)},
		{"7/4/2025 12:30 AM CDT", time.Date(2025, 7, 4, 5, 30, 0, 0, time.UTC)},
		{"3/1/2024 11:59 PM MST", time.Date(2024, 3, 2, 6, 59, 0, 0, time.UTC)},
		{"2/29/2024 1:00 AM UTC", time.Date(2024, 2, 29, 1, 0, 0, 0, time.UTC)},
		{"10/10/2024 10:10 PM AKDT", time.Date(2024, 10, 11, 6, 10, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DateFromTimezoneDateString(tt.in)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want, got.UTC())
			}
		})
	}
}

func TestIsValidDateString_Malformed(t *testing.T) {
	invalid := []string{
		"",
		"12-9-2024 06:15 PM PST",  // wrong date separator
		"12/9/2024 06.15 PM PST",  // wrong time separator
		"12/9/2024 06:15 PM XYZ",  // unknown timezone
		"12/9/2024 06:15 PM pst",  // lowercase timezone
		"12/9/2024 06:15 pm PST",  // lowercase period
		"12/9/2024 06:15 PST",     // missing period
		"12/9/24 06:15 PM PST",    // two-digit year
		"13/9/2024 06:15 PM PST",  // month out of range
		"2/30/2024 06:15 PM PST",  // day out of range
		"2/29/2023 06:15 PM PST",  // not a leap year
		"12/9/2024 13:15 PM PST",  // hour out of range
		"12/9/2024 0:15 AM PST",   // hour zero
		"12/9/2024 06:60 PM PST",  // minute out of range
		" 12/9/2024 06:15 PM PST", // leading space
	}

	for _, s := range invalid {
		t.Run(s, func(t *testing.T) {
			if IsValidDateString(s) {
				t.Errorf("Expected %q to be invalid", s)
			}
			if _, err := DateFromTimezoneDateString(s); !errors.Is(err, ErrInvalidDateString) {
				t.Errorf("Expected ErrInvalidDateString, got %v", err)
			}
		})
	}
}

func TestTimezoneOffset(t *testing.T) {
	loc, ok := TimezoneOffset("CST")
	if !ok {
		t.Fatal("Expected CST to be supported")
	}
	if _, offset := time.Date(2024, 7, 1, 0, 0, 0, 0, loc).Zone(); offset != -6*60*60 {
		t.Errorf("Expected fixed -6h offset in summer, got %ds", offset)
	}
	if _, ok := TimezoneOffset("CET"); ok {
		t.Error("Expected CET to be unsupported")
	}
}
