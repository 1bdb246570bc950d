package youtube

import "testing"

func TestParseDuration(t *testing.T) {
	cases := []struct {
		iso  string
		want int
	}{
		{"PT45S", 45},
		{"PT60S", 60},
		{"PT1M", 60},
		{"PT1M30S", 90},
		{"PT10M12S", 612},
		{"PT1H", 3600},
		{"PT2H5M3S", 7503},
		{"PT0S", 0},
		{"", 0},
		{"P1D", 0},
		{"garbage", 0},
	}

	for _, tc := range cases {
		if got := ParseDuration(tc.iso); got != tc.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tc.iso, got, tc.want)
		}
	}
}

func TestIsShortBoundary(t *testing.T) {
	short := VideoDetail{DurationSeconds: 60}
	if !short.IsShort() {
		t.Error("60s video should be a Short")
	}
	long := VideoDetail{DurationSeconds: 61}
	if long.IsShort() {
		t.Error("61s video should not be a Short")
	}
}
