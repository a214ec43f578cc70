package contract

import (
	"testing"
	"time"
)

// FuzzParseTimestamp fuzzes ParseTimestamp with random inputs.
func FuzzParseTimestamp(f *testing.F) {
	seeds := []string{
		"2013-06-07T00:00:00Z",
		"2013-06-07T00:00:00.000000",
		"2013-06-07T08:15:30+02:00",
		"2013-06-07T08:15:30+0200",
		"2013-06-07",
		"",
		"not a date",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		ts, err := ParseTimestamp(input)
		if err != nil {
			return
		}
		if ts.Location() != time.UTC {
			t.Errorf("ParseTimestamp(%q) returned location %v, want UTC", input, ts.Location())
		}
	})
}
