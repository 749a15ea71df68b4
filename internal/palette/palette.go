// Package palette assigns a stable display color to every instrument
// symbol. The mapping is deterministic across sessions: same symbol,
// same color, with no per-session randomness. Collisions between
// different symbols are expected and accepted.
package palette

// The canonical palette: 50 bright base entries followed by 50 material
// variants. A few near-duplicates exist in the source table and are kept
// as-is, since removing them would shift every index behind them.
var colors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8C471", "#82E0AA", "#F1948A", "#85C1E9", "#D7BDE2",
	"#A9DFBF", "#F9E79F", "#FADBD8", "#D5DBDB", "#AED6F1",
	"#A3E4D7", "#FCF3CF", "#FAD7A0", "#D2B4DE", "#A9CCE3",
	"#A9DFBF", "#F7DC6F", "#F8C471", "#BB8FCE", "#85C1E9",
	"#D7BDE2", "#A3E4D7", "#FCF3CF", "#FAD7A0", "#D2B4DE",
	"#A9CCE3", "#A9DFBF", "#F7DC6F", "#F8C471", "#BB8FCE",
	"#85C1E9", "#D7BDE2", "#A3E4D7", "#FCF3CF", "#FAD7A0",
	"#D2B4DE", "#A9CCE3", "#A9DFBF", "#F7DC6F", "#F8C471",
	"#E74C3C", "#3498DB", "#2ECC71", "#F39C12", "#9B59B6",
	"#1ABC9C", "#34495E", "#E67E22", "#95A5A6", "#F1C40F",
	"#E91E63", "#00BCD4", "#4CAF50", "#FF9800", "#673AB7",
	"#009688", "#607D8B", "#FF5722", "#795548", "#3F51B5",
	"#8BC34A", "#FFC107", "#9C27B0", "#00BCD4", "#4CAF50",
	"#FF9800", "#673AB7", "#009688", "#607D8B", "#FF5722",
	"#795548", "#3F51B5", "#8BC34A", "#FFC107", "#9C27B0",
	"#00BCD4", "#4CAF50", "#FF9800", "#673AB7", "#009688",
	"#607D8B", "#FF5722", "#795548", "#3F51B5", "#8BC34A",
	"#FFC107", "#9C27B0", "#00BCD4", "#4CAF50", "#FF9800",
}

// Size returns the palette length.
func Size() int { return len(colors) }

// Colors returns a copy of the canonical palette in order.
func Colors() []string {
	out := make([]string, len(colors))
	copy(out, colors)
	return out
}

// ColorFor maps a symbol to its palette entry. The hash is a 31-based
// rolling hash over the symbol's code points with 32-bit signed
// wraparound at every step; the wraparound is intentional and must not
// be "fixed", or symbols stop matching colors assigned by other
// implementations of the same rule.
func ColorFor(symbol string) string {
	return colors[indexFor(symbol)]
}

func indexFor(symbol string) int {
	var h int32
	for _, ch := range symbol {
		h = h*31 + int32(ch)
	}
	idx := int(h)
	if idx < 0 {
		idx = -idx
	}
	return idx % len(colors)
}
