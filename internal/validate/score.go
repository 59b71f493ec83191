package validate

// severityWeights is the validator's scoring table: each issue subtracts its
// severity's weight from a starting score of 100.
//
// This is deliberately a different formula from the simulator's step-outcome
// score (see the simulate package). The two scores share grade thresholds but
// must never be conflated or merged into one function.
var severityWeights = map[Severity]int{
	SeverityError: 20,
	SeverityWarn:  5,
}

// Score computes the error/warning-weighted score, floored at 0. Pure and
// deterministic over the issue list.
func (r *Report) Score() int {
	score := 100
	for _, is := range r.Issues {
		score -= severityWeights[is.Severity]
	}
	if score < 0 {
		return 0
	}
	return score
}

// Grade returns the letter grade for this report's score.
func (r *Report) Grade() string {
	return GradeFor(r.Score())
}

// gradeBands maps minimum scores to letter grades, highest first. The same
// thresholds grade both the validator's and the simulator's 0-100 scores.
var gradeBands = []struct {
	Min   int
	Grade string
}{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
	{0, "F"},
}

// GradeFor is a pure, total function from score to letter grade.
func GradeFor(score int) string {
	for _, band := range gradeBands {
		if score >= band.Min {
			return band.Grade
		}
	}
	return "F"
}
