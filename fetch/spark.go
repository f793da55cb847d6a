package fetch

import (
	"math"
	"strings"
)

// IRC formatting codes for directional colouring.
const (
	ircGreen      = "\x0303"
	ircRed        = "\x0304"
	ircColorReset = "\x03"
)

// sparkLevels are the block glyphs, lowest to highest.
var sparkLevels = [8]string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// sparkEpsilon: prices at or below this render as a blank, the series'
// sentinel for "no data in this bucket".
const sparkEpsilon = 0.001

// Sparkline renders prices as an 8-level unicode bar chart. Each bar is
// coloured green when its price rose versus the previous bar (versus initial
// for the first bar), red otherwise. When max == min the level ratio is
// treated as 1.0 so a flat series doesn't divide by zero.
func Sparkline(initial float64, prices []float64, colour bool) string {
	if len(prices) == 0 {
		return ""
	}

	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	ratio := 1.0
	if max != min {
		ratio = float64(len(sparkLevels)-1) / (max - min)
	}

	var b strings.Builder
	prev := initial
	for _, p := range prices {
		if p <= sparkEpsilon {
			b.WriteString(" ")
			prev = p
			continue
		}
		level := int(math.Round((p - min) * ratio))
		if level < 0 {
			level = 0
		}
		if level > len(sparkLevels)-1 {
			level = len(sparkLevels) - 1
		}
		if colour {
			if p > prev {
				b.WriteString(ircGreen)
			} else {
				b.WriteString(ircRed)
			}
		}
		b.WriteString(sparkLevels[level])
		prev = p
	}
	if colour {
		b.WriteString(ircColorReset)
	}
	return b.String()
}
