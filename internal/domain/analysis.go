package domain

// Analysis is the scorer-agnostic view of a candidate that the policy gate
// operates on. Implemented by KeywordAnalysis (deterministic classifier
// output) and GroqAnalysis (LLM-backed enrichment), so the gate does not
// care which scorer produced the candidate.
type Analysis interface {
	// Actionable reports whether the scorer itself recommends launching.
	Actionable() bool
	// Confidence in [0,1].
	Confidence() float64
	// Score on a 1-10 scale.
	Score() float64
	// RiskFlags lists named risks (e.g. "political", "brand_like_ticker").
	RiskFlags() []string
	// Sensitive reports NSFW or otherwise sensitive content.
	Sensitive() bool

	TokenName() string
	TokenTicker() string
}

// KeywordAnalysis adapts a ClassifiedSignal to the Analysis interface for
// the non-enriched path. The keyword scorer has no risk-flag taxonomy, so
// RiskFlags is always empty; risk-based filtering happens upstream of the
// gate via confidence/risk thresholds.
type KeywordAnalysis struct {
	Classified *ClassifiedSignal
}

// Actionable reports whether the classifier saw a launch alert.
func (a KeywordAnalysis) Actionable() bool {
	return a.Classified != nil && a.Classified.Category == CategoryLaunchAlert
}

func (a KeywordAnalysis) Confidence() float64 {
	if a.Classified == nil {
		return 0
	}
	return a.Classified.Confidence
}

// Score maps confidence onto the 1-10 scale the gate compares against.
func (a KeywordAnalysis) Score() float64 {
	if a.Classified == nil {
		return 0
	}
	return a.Classified.Confidence * 10
}

func (a KeywordAnalysis) RiskFlags() []string { return nil }

func (a KeywordAnalysis) Sensitive() bool { return false }

func (a KeywordAnalysis) TokenName() string {
	return a.TokenTicker()
}

// TokenTicker returns the first extracted ticker without the "$" prefix.
func (a KeywordAnalysis) TokenTicker() string {
	if a.Classified == nil || len(a.Classified.Tickers) == 0 {
		return ""
	}
	t := a.Classified.Tickers[0]
	if len(t) > 0 && t[0] == '$' {
		t = t[1:]
	}
	return t
}

// GroqAnalysis is the result of the LLM-backed enrichment step for the
// Twitter launch path. Treated as an opaque collaborator's verdict.
type GroqAnalysis struct {
	ShouldLaunch    bool     `json:"shouldLaunch"`
	ConfidenceScore float64  `json:"confidence"`
	Score1To10      float64  `json:"score1to10"`
	Flags           []string `json:"riskFlags"`
	NSFWOrSensitive bool     `json:"nsfwOrSensitive"`
	Name            string   `json:"tokenName"`
	Ticker          string   `json:"tokenTicker"`
	Reasoning       string   `json:"reasoning,omitempty"`
}

func (a *GroqAnalysis) Actionable() bool    { return a.ShouldLaunch }
func (a *GroqAnalysis) Confidence() float64 { return a.ConfidenceScore }
func (a *GroqAnalysis) Score() float64      { return a.Score1To10 }
func (a *GroqAnalysis) RiskFlags() []string { return a.Flags }
func (a *GroqAnalysis) Sensitive() bool     { return a.NSFWOrSensitive }
func (a *GroqAnalysis) TokenName() string   { return a.Name }
func (a *GroqAnalysis) TokenTicker() string { return a.Ticker }

// Compile-time interface checks.
var (
	_ Analysis = KeywordAnalysis{}
	_ Analysis = (*GroqAnalysis)(nil)
)
