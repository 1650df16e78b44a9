package scq

import (
	"math/rand"
)

// SampleFeatureVector enumerates all 3^7 grade combinations, shuffles them,
// and returns the first whose weighted grade falls within target±1, per
// spec §4.7 step 4. Returns (nil, false) if the bound is infeasible.
func SampleFeatureVector(target float64, rng *rand.Rand) (FeatureVector, bool) {
	all := allCombinations()
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	for _, combo := range all {
		v := vectorFromCombo(combo)
		g := v.WeightedGrade()
		if target-1 <= g && g <= target+1 {
			return v, true
		}
	}
	return nil, false
}

// allCombinations enumerates the 3^7 = 2187 grade combinations for the 7
// features, matching scq_generator.py's `product(range(1, 4), repeat=7)`.
func allCombinations() [][7]int {
	out := make([][7]int, 0, 2187)
	var combo [7]int
	var rec func(i int)
	rec = func(i int) {
		if i == 7 {
			out = append(out, combo)
			return
		}
		for g := 1; g <= 3; g++ {
			combo[i] = g
			rec(i + 1)
		}
	}
	rec(0)
	return out
}

func vectorFromCombo(combo [7]int) FeatureVector {
	v := make(FeatureVector, len(FeatureOrder))
	for i, name := range FeatureOrder {
		v[name] = combo[i]
	}
	return v
}
