package main

import (
	"math"
	"strings"
	"testing"
)

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		input float64
		want  string
	}{
		{0, "0:00"},
		{59.4, "0:59"},
		{60, "1:00"},
		{125, "2:05"},
		{3600, "60:00"},
		{math.Inf(1), "live"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.input); got != tc.want {
			t.Fatalf("formatSeconds(%f): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	rendered := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-a"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(rendered, "only-a") {
		t.Fatalf("expected cell in output: %q", rendered)
	}
}
