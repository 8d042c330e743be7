package league

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

// NormalizePrice converts either encoding of player prices to pounds. FPL
// serves integer tenths (105 means 10.5); decimal-pound values pass through.
// Integers below 20 are ambiguous and kept as-is: no player costs less than
// 2.0, so a small integer is already pounds.
func NormalizePrice(v float64) float64 {
	if v >= 20 && v == math.Trunc(v) {
		return v / 10
	}
	return v
}

// ClassifyPriceChanges splits rows into risers and fallers by comparing
// normalized old and new prices. Rows with no movement are dropped.
func ClassifyPriceChanges(rows []PriceRow) (risers, fallers []types.PriceSignal) {
	for _, row := range rows {
		oldPrice := NormalizePrice(row.Old)
		newPrice := NormalizePrice(row.New)

		switch {
		case newPrice > oldPrice:
			risers = append(risers, types.PriceSignal{
				Name:      row.Name,
				Team:      row.Team,
				Price:     newPrice,
				Direction: types.PriceRiser,
			})
		case newPrice < oldPrice:
			fallers = append(fallers, types.PriceSignal{
				Name:      row.Name,
				Team:      row.Team,
				Price:     newPrice,
				Direction: types.PriceFaller,
			})
		}
	}
	return risers, fallers
}

// Signature derives a canonical dedup key from a classified result set:
// sorted, deduplicated name|team|price tuples. Two polls with the same
// movements produce the same signature regardless of internal ordering.
func Signature(risers, fallers []types.PriceSignal) string {
	seen := make(map[string]struct{})
	var tuples []string

	add := func(signals []types.PriceSignal) {
		for _, s := range signals {
			t := fmt.Sprintf("%s|%s|%.1f", NormalizeName(s.Name), NormalizeName(s.Team), s.Price)
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tuples = append(tuples, t)
		}
	}
	add(risers)
	add(fallers)

	sort.Strings(tuples)
	return strings.Join(tuples, ";")
}
