package match

import "github.com/TanishqMishra12/VAYO/internal/domain"

// diversify returns a copy of ms in which, if the top three share one
// category, the first later match of another category is moved to third
// place. At most one match moves; everything else keeps its relative order.
func diversify(ms []domain.Match) []domain.Match {
	out := make([]domain.Match, len(ms))
	copy(out, ms)

	if len(out) < 4 {
		return out
	}
	top := out[0].Category
	if out[1].Category != top || out[2].Category != top {
		return out
	}

	for i := 3; i < len(out); i++ {
		if out[i].Category == top {
			continue
		}
		moved := out[i]
		copy(out[3:i+1], out[2:i])
		out[2] = moved
		break
	}
	return out
}
