package util

import (
	"math"
	"testing"
)

func TestPercentRoundsToTwoDecimals(t *testing.T) {
	cases := []struct {
		ratio float64
		want  float64
	}{
		{0.91, 91},
		{0.8699999, 87},
		{0.86994, 86.99},
		{0.865, 86.5},
		{0.86995, 87},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Percent(tc.ratio); got != tc.want {
			t.Errorf("Percent(%v) = %v, want %v", tc.ratio, got, tc.want)
		}
	}
}

func TestFormatSceneTime(t *testing.T) {
	cases := map[float64]string{
		125:    "02:05",
		59:     "00:59",
		59.9:   "00:59",
		0:      "00:00",
		6000:   "100:00",
		-3:     "00:00",
		3599.5: "59:59",
	}
	for in, want := range cases {
		if got := FormatSceneTime(in); got != want {
			t.Errorf("FormatSceneTime(%v) = %q, want %q", in, got, want)
		}
	}
	if got := FormatSceneTime(math.NaN()); got != "00:00" {
		t.Errorf("FormatSceneTime(NaN) = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(2020, 1, 5); got != "2020-01-05" {
		t.Fatalf("unexpected date %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		91:    "91",
		86.5:  "86.5",
		87.01: "87.01",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateStringCountsRunes(t *testing.T) {
	if got := TruncateString("검색결과없음", 2); got != "검색..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := TruncateString("short", 10); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
