package focus

import "math"

// CandidateCount is the number of distances evaluated per sweep.
const CandidateCount = 3

// Evaluation is a focus distance with the sharpness of the frame taken there.
type Evaluation struct {
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"`
}

// Candidates returns the sweep distances: min, midpoint, max.
// The device's step size is deliberately not used to sample more finely.
func Candidates(min, max float64) [CandidateCount]float64 {
	return [CandidateCount]float64{min, (min + max) / 2, max}
}

// SelectBest reduces evaluations to the one with the strictly greatest
// score. The running best starts at the first distance with score -Inf,
// so ties keep the earliest evaluation. ok is false for an empty slice.
func SelectBest(evals []Evaluation) (best Evaluation, ok bool) {
	if len(evals) == 0 {
		return Evaluation{}, false
	}

	best = Evaluation{Distance: evals[0].Distance, Score: math.Inf(-1)}
	for _, e := range evals {
		if e.Score > best.Score {
			best = e
		}
	}
	return best, true
}
