package simulate

import "math"

// stageWeights is the simulator's scoring table: each stage's share of the
// 0-100 score, weighted toward the checkout and payment stages because those
// are what an agent ultimately came for.
//
// This formula (proportion of passed/warned steps per stage) is distinct
// from the validator's error/warning-count formula. The two scores share
// grade thresholds and nothing else; do not merge them.
var stageWeights = map[string]float64{
	"discovery":    15,
	"capabilities": 20,
	"restApi":      15,
	"checkout":     30,
	"payment":      20,
}

// stepValues maps a step outcome to its contribution within a stage.
// Skipped steps stay in the denominator: a stage that could not run earns
// nothing, which is what pins the score to its minimum on a failed fetch.
var stepValues = map[StepStatus]float64{
	StatusPass: 1,
	StatusWarn: 0.5,
	StatusFail: 0,
	StatusSkip: 0,
}

// overallScore is a pure, deterministic function of the recorded stages.
// Stages the caller disabled are excluded and the remaining weights
// renormalized; stages skipped because a prerequisite failed count as zero.
func overallScore(r *Result) int {
	var totalWeight, earned float64
	for _, s := range r.stages() {
		if s.stage.Disabled {
			continue
		}
		w := stageWeights[s.key]
		totalWeight += w
		earned += w * stageRatio(s.stage.Steps)
	}
	if totalWeight == 0 {
		return 0
	}

	score := int(math.Round(earned / totalWeight * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func stageRatio(steps []Step) float64 {
	if len(steps) == 0 {
		return 0
	}
	var sum float64
	for _, st := range steps {
		sum += stepValues[st.Status]
	}
	return sum / float64(len(steps))
}
