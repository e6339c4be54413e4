package parity

// Outcome classifies a case or check result. Skips are reported distinctly
// from passes and failures.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
)

// CheckResult is one evaluated assertion.
type CheckResult struct {
	Description string
	Outcome     Outcome
	Diagnostic  string
}

// CaseResult is one executed (or skipped) case.
type CaseResult struct {
	Name    string
	Outcome Outcome

	// Reason explains a skip; empty otherwise.
	Reason string

	Checks []CheckResult
}

// DocumentResult aggregates one document's run on one platform.
type DocumentResult struct {
	Document string
	Platform string
	Cases    []CaseResult
}

// Counts returns (passed, failed, skipped) case totals.
func (r DocumentResult) Counts() (int, int, int) {
	var passed, failed, skipped int
	for _, c := range r.Cases {
		switch c.Outcome {
		case OutcomePass:
			passed++
		case OutcomeFail:
			failed++
		case OutcomeSkip:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Passed reports whether no case failed. Skipped cases do not fail a run.
func (r DocumentResult) Passed() bool {
	_, failed, _ := r.Counts()
	return failed == 0
}
