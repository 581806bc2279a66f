package domain

import "time"

// CandidateStatus is the lifecycle state of a launch candidate.
//
// Valid transitions:
//
//	candidate → queued → launched
//	candidate → skipped-classifier | skipped-policy | skipped-manual |
//	            analysis-missing | failed
//	failed → candidate (retry, re-arms the dedup guard)
//
// The cache does not enforce these transitions; callers apply them in
// valid order.
type CandidateStatus string

const (
	StatusCandidate         CandidateStatus = "candidate"
	StatusQueued            CandidateStatus = "queued"
	StatusLaunched          CandidateStatus = "launched"
	StatusSkippedClassifier CandidateStatus = "skipped-classifier"
	StatusSkippedPolicy     CandidateStatus = "skipped-policy"
	StatusSkippedManual     CandidateStatus = "skipped-manual"
	StatusAnalysisMissing   CandidateStatus = "analysis-missing"
	StatusFailed            CandidateStatus = "failed"
)

// LaunchCandidate is a tracked, stateful decision record tied to one
// potential automated token launch. Mutated in place by the candidate
// cache; never deleted except on process restart.
type LaunchCandidate struct {
	Key           string // ticker + "-" + source id, stable per originating event
	Analysis      Analysis
	SourceCommand string // the message/command that produced this candidate
	Status        CandidateStatus
	UpdatedAt     time.Time
}

// CandidateKey builds the composite dedup key for a candidate.
func CandidateKey(ticker, sourceID string) string {
	return ticker + "-" + sourceID
}
