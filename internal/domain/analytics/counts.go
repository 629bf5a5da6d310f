package analytics

import (
	"math"
	"sort"
)

type counted struct {
	value string
	count int
}

// valueCounts tallies values, ordered by count descending. Ties keep the
// order in which values were first seen.
func valueCounts(values []string) []counted {
	pos := make(map[string]int, len(values))
	out := make([]counted, 0)
	for _, v := range values {
		if i, ok := pos[v]; ok {
			out[i].count++
			continue
		}
		pos[v] = len(out)
		out = append(out, counted{value: v, count: 1})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].count > out[b].count })
	return out
}

func head(c []counted, n int) []counted {
	if len(c) > n {
		return c[:n]
	}
	return c
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
