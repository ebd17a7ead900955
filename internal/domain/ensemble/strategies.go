package ensemble

import (
	"math"
	"strings"
)

const (
	bestOfQualityWeight      = 0.6
	bestOfLengthWeight       = 0.2
	bestOfCompletenessWeight = 0.2
	bestOfLengthSaturation   = 1000.0
)

// canonicalize collapses a response to a comparison key: lowercased,
// trimmed, inner whitespace runs reduced to single spaces.
func canonicalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// reduceVoting tallies canonical forms and returns the most frequent one.
// Agreement is the winning tally over the total contributor count. Ties go
// to the canonical form seen first.
func reduceVoting(contributors []Contribution) (string, float64) {
	tally := make(map[string]int, len(contributors))
	order := make([]string, 0, len(contributors))
	for _, c := range contributors {
		key := canonicalize(c.Response)
		if _, seen := tally[key]; !seen {
			order = append(order, key)
		}
		tally[key]++
	}

	winner := order[0]
	for _, key := range order[1:] {
		if tally[key] > tally[winner] {
			winner = key
		}
	}
	return winner, float64(tally[winner]) / float64(len(contributors))
}

// reduceWeighted returns the response of the highest-weighted contributor.
// Unweighted models carry weight 1, an explicit zero silences a model. Ties
// keep the earliest contributor.
func reduceWeighted(contributors []Contribution) (string, float64) {
	top := contributors[0]
	total := 0.0
	for _, c := range contributors {
		total += c.Weight
		if c.Weight > top.Weight {
			top = c
		}
	}
	if total == 0 {
		return top.Response, 0
	}
	return top.Response, top.Weight / total
}

// reduceBestOf scores each response on the model's declared quality, the
// response length, and whether it ends in terminal punctuation. Quality
// here is the model's static catalog score, deliberately a proxy rather
// than a judgment of the generated text itself.
func reduceBestOf(contributors []Contribution) (string, float64) {
	top := contributors[0]
	topScore := bestOfScore(top)
	for _, c := range contributors[1:] {
		if score := bestOfScore(c); score > topScore {
			top = c
			topScore = score
		}
	}
	return top.Response, topScore / 100
}

func bestOfScore(c Contribution) float64 {
	lengthScore := math.Min(float64(len(c.Response))/bestOfLengthSaturation, 1) * 100
	completeness := 80.0
	trimmed := strings.TrimSpace(c.Response)
	if strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?") {
		completeness = 100
	}
	return c.Model.Performance.Quality*bestOfQualityWeight +
		lengthScore*bestOfLengthWeight +
		completeness*bestOfCompletenessWeight
}

// reduceConsensus picks the response most similar on average to all the
// others, by pairwise Jaccard word-set similarity. When even the best
// average falls below the threshold there is no consensus and the
// reduction falls back to best_of on the same responses.
func reduceConsensus(contributors []Contribution, threshold float64) (string, float64) {
	if len(contributors) == 1 {
		return contributors[0].Response, 1
	}

	wordSets := make([]map[string]struct{}, len(contributors))
	for i, c := range contributors {
		wordSets[i] = wordSet(c.Response)
	}

	bestIdx := 0
	bestAvg := -1.0
	for i := range contributors {
		sum := 0.0
		for j := range contributors {
			if i == j {
				continue
			}
			sum += jaccard(wordSets[i], wordSets[j])
		}
		avg := sum / float64(len(contributors)-1)
		if avg > bestAvg {
			bestAvg = avg
			bestIdx = i
		}
	}

	if bestAvg < threshold {
		return reduceBestOf(contributors)
	}
	return contributors[bestIdx].Response, bestAvg
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(s)) {
		set[word] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for word := range a {
		if _, ok := b[word]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
