package domain

import "testing"

func TestClampPercent(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1, 100},
		{0.5, 50},
		{1.5, 100},
		{-0.3, 0},
		{0.955, 96},
		{0.125, 13},
		{0.004, 0},
		{0.005, 1},
		{0.999, 100},
	}
	for _, tc := range cases {
		if got := ClampPercent(tc.in); got != tc.want {
			t.Fatalf("ClampPercent(%v): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}
