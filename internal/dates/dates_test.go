package dates

import (
	"errors"
	"testing"
	"time"
)

func TestFormat_KnownPatterns(t *testing.T) {
	ts := time.Date(2023, 2, 18, 13, 2, 8, 0, time.UTC)
	cases := []struct {
		pattern  string
		expected string
	}{
		{"yyyy-MM-dd HH:mm:ss", "2023-02-18 13:02:08"},
		{"yyyy-MM-dd", "2023-02-18"},
		{"yyyy-MM-dd'T'HH:mm:ss", "2023-02-18T13:02:08"},
		{"yyyy/yyyy-MM/yyyy-MM-dd/HHmmss", "2023/2023-02/2023-02-18/130208"},
		{"MMM d, yyyy", "Feb 18, 2023"},
	}
	for _, tc := range cases {
		if got := Format(ts, tc.pattern); got != tc.expected {
			t.Errorf("Format(%q) = %q, want %q", tc.pattern, got, tc.expected)
		}
	}
}

func TestRoundTrip_SecondPrecision(t *testing.T) {
	const pattern = "yyyy-MM-dd HH:mm:ss"
	instants := []time.Time{
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2023, 2, 18, 13, 2, 8, 169_000_000, time.UTC),
		time.Date(2037, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, in := range instants {
		out, err := Parse(Format(in, pattern), pattern)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !out.Equal(in.Truncate(time.Second)) {
			t.Errorf("round trip %v -> %v", in, out)
		}
	}
}

func TestRoundTrip_DateOnlyIsLossy(t *testing.T) {
	in := time.Date(2023, 2, 18, 13, 2, 8, 0, time.UTC)
	out, err := Parse(Format(in, "yyyy-MM-dd"), "yyyy-MM-dd")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.Hour() != 0 || out.Day() != 18 {
		t.Errorf("date-only round trip = %v", out)
	}
}

func TestParseISO(t *testing.T) {
	valid := []string{
		"2023-02-18T13:02:08.169Z",
		"2023-02-18T13:02:08Z",
		"2023-02-18T13:02:08+02:00",
		"2023-02-18T13:02:08",
		"2023-02-18",
	}
	for _, s := range valid {
		if _, err := ParseISO(s); err != nil {
			t.Errorf("ParseISO(%q) failed: %v", s, err)
		}
	}

	invalid := []string{"", "not a date", "18/02/2023", "2023-13-45T99:99:99Z"}
	for _, s := range invalid {
		_, err := ParseISO(s)
		if err == nil {
			t.Errorf("ParseISO(%q) should fail", s)
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseISO(%q) error = %v, want ErrInvalidDate", s, err)
		}
	}
}

func TestParseTimestamp_AcceptsSecondsLessForm(t *testing.T) {
	if _, err := ParseTimestamp("2023-02-18T13:02:08"); err != nil {
		t.Errorf("with seconds: %v", err)
	}
	if _, err := ParseTimestamp("2023-02-18T13:02"); err != nil {
		t.Errorf("without seconds: %v", err)
	}
	if _, err := ParseTimestamp("bogus"); err == nil {
		t.Error("bogus timestamp should fail")
	}
}

func TestLayout_QuotedLiterals(t *testing.T) {
	if got := Layout("yyyy'T'MM"); got != "2006T01" {
		t.Errorf("Layout = %q", got)
	}
	// Doubled quote inside a quoted span is a literal quote.
	if got := Layout("'o''clock' HH"); got != "o'clock 15" {
		t.Errorf("Layout = %q", got)
	}
}
