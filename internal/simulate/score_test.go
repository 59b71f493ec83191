package simulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stageOf(statuses ...StepStatus) StageResult {
	var s StageResult
	for _, st := range statuses {
		s.add("step", st, "")
	}
	return s
}

func resultWith(discovery, capabilities, restAPI, checkout, payment StageResult) *Result {
	return &Result{
		Discovery:    DiscoveryStage{StageResult: discovery},
		Capabilities: CapabilitiesStage{StageResult: capabilities},
		RestAPI:      RestAPIStage{StageResult: restAPI},
		Checkout:     CheckoutStage{StageResult: checkout},
		Payment:      PaymentStage{StageResult: payment},
	}
}

func TestOverallScoreAllPass(t *testing.T) {
	r := resultWith(
		stageOf(StatusPass, StatusPass),
		stageOf(StatusPass, StatusPass),
		stageOf(StatusPass),
		stageOf(StatusPass, StatusPass, StatusPass, StatusPass),
		stageOf(StatusPass, StatusPass, StatusPass),
	)
	assert.Equal(t, 100, overallScore(r))
}

func TestOverallScoreAllFail(t *testing.T) {
	r := resultWith(
		stageOf(StatusFail, StatusSkip),
		stageOf(StatusSkip, StatusSkip),
		stageOf(StatusSkip),
		stageOf(StatusFail, StatusSkip, StatusSkip, StatusSkip),
		stageOf(StatusSkip, StatusSkip, StatusSkip),
	)
	assert.Equal(t, 0, overallScore(r))
}

func TestOverallScoreWarnIsHalf(t *testing.T) {
	// Every stage a single warn step: every ratio 0.5.
	r := resultWith(
		stageOf(StatusWarn),
		stageOf(StatusWarn),
		stageOf(StatusWarn),
		stageOf(StatusWarn),
		stageOf(StatusWarn),
	)
	assert.Equal(t, 50, overallScore(r))
}

func TestOverallScoreSkipStaysInDenominator(t *testing.T) {
	// One pass and one skip in discovery, everything else perfect: the skip
	// costs half of discovery's 15-point weight.
	r := resultWith(
		stageOf(StatusPass, StatusSkip),
		stageOf(StatusPass),
		stageOf(StatusPass),
		stageOf(StatusPass),
		stageOf(StatusPass),
	)
	assert.Equal(t, 93, overallScore(r)) // 92.5 rounds up
}

func TestOverallScoreDisabledStageRenormalizes(t *testing.T) {
	restAPI := stageOf(StatusSkip)
	restAPI.Disabled = true
	r := resultWith(
		stageOf(StatusPass),
		stageOf(StatusPass),
		restAPI,
		stageOf(StatusPass),
		stageOf(StatusPass),
	)
	assert.Equal(t, 100, overallScore(r))
}

func TestOverallScoreAllDisabled(t *testing.T) {
	disabled := func() StageResult {
		s := stageOf(StatusSkip)
		s.Disabled = true
		return s
	}
	r := resultWith(disabled(), disabled(), disabled(), disabled(), disabled())
	assert.Equal(t, 0, overallScore(r))
}

func TestSummarizeCounts(t *testing.T) {
	r := resultWith(
		stageOf(StatusPass, StatusFail),
		stageOf(StatusWarn),
		stageOf(StatusSkip),
		stageOf(StatusPass),
		stageOf(),
	)
	r.summarize()
	assert.Equal(t, 5, r.Summary.TotalSteps)
	assert.Equal(t, 2, r.Summary.PassedSteps)
	assert.Equal(t, 1, r.Summary.FailedSteps)
	assert.Equal(t, 1, r.Summary.WarningSteps)
	assert.Equal(t, 1, r.Summary.SkippedSteps)
}
