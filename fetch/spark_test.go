package fetch

import "testing"

func TestSparklineColoured(t *testing.T) {
	// min=8 max=12 → ratio 7/4: levels 4, 7, 0. First bar ties the initial
	// price so it colours red; the rest follow their predecessor.
	got := Sparkline(10, []float64{10, 12, 8}, true)
	want := "\x0304▅\x0303█\x0304▁\x03"
	if got != want {
		t.Errorf("Sparkline = %q, want %q", got, want)
	}
}

func TestSparklinePlain(t *testing.T) {
	got := Sparkline(10, []float64{10, 12, 8}, false)
	if got != "▅█▁" {
		t.Errorf("Sparkline = %q", got)
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	// max == min must not divide by zero; everything sits at the floor.
	got := Sparkline(5, []float64{5, 5, 5}, false)
	if got != "▁▁▁" {
		t.Errorf("Sparkline = %q", got)
	}
}

func TestSparklineEpsilonBlank(t *testing.T) {
	// Near-zero prices mark missing buckets and render as a space.
	got := Sparkline(10, []float64{10, 0, 12}, false)
	if got != "▇ █" {
		t.Errorf("Sparkline = %q", got)
	}
}

func TestSparklineEmpty(t *testing.T) {
	if got := Sparkline(10, nil, true); got != "" {
		t.Errorf("Sparkline(empty) = %q", got)
	}
}
