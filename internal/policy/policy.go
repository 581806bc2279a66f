// Package policy decides whether a scored candidate may proceed to the
// irreversible launch action. The gate is a pure predicate: no side
// effects, no I/O, always terminates.
package policy

import (
	"fmt"
	"strings"

	"launch-radar/internal/domain"
)

// Default thresholds.
const (
	DefaultMinScore      = 8.0
	DefaultMinConfidence = 0.65
)

// DefaultBlockedRiskFlags returns the stock blocked risk-flag set.
func DefaultBlockedRiskFlags() []string {
	return []string{"political", "tragedy", "brand_like_ticker"}
}

// Policy holds the configurable gate thresholds.
type Policy struct {
	MinScore         float64  `yaml:"min_score" env:"POLICY_MIN_SCORE"`
	MinConfidence    float64  `yaml:"min_confidence" env:"POLICY_MIN_CONFIDENCE"`
	BlockedRiskFlags []string `yaml:"blocked_risk_flags"`
	AllowNSFW        bool     `yaml:"allow_nsfw" env:"POLICY_ALLOW_NSFW"`
}

// Default returns the stock policy.
func Default() Policy {
	return Policy{
		MinScore:         DefaultMinScore,
		MinConfidence:    DefaultMinConfidence,
		BlockedRiskFlags: DefaultBlockedRiskFlags(),
	}
}

// CheckResult records pass/fail for one gate criterion.
type CheckResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// GateResult is the full gate verdict with its checklist, useful for
// audit trails and alert messages.
type GateResult struct {
	Allowed bool
	Checks  []CheckResult
}

// FailedChecks returns the names of failed criteria.
func (r *GateResult) FailedChecks() []string {
	var out []string
	for _, c := range r.Checks {
		if !c.Pass {
			out = append(out, c.Name)
		}
	}
	return out
}

// Evaluator evaluates launch candidates against a Policy.
type Evaluator struct {
	policy  Policy
	blocked map[string]struct{}
}

// NewEvaluator creates an Evaluator for the given policy.
func NewEvaluator(p Policy) *Evaluator {
	e := &Evaluator{
		policy:  p,
		blocked: make(map[string]struct{}, len(p.BlockedRiskFlags)),
	}
	for _, f := range p.BlockedRiskFlags {
		e.blocked[strings.ToLower(f)] = struct{}{}
	}
	return e
}

// Evaluate produces the gate verdict for one analysis. Allowed only if
// every criterion passes.
func (e *Evaluator) Evaluate(a domain.Analysis) *GateResult {
	checks := make([]CheckResult, 0, 5)

	checks = append(checks, CheckResult{
		Name:      "Analysis recommends launch",
		Threshold: "true",
		Actual:    fmt.Sprintf("%t", a.Actionable()),
		Pass:      a.Actionable(),
	})

	nsfwPass := e.policy.AllowNSFW || !a.Sensitive()
	checks = append(checks, CheckResult{
		Name:      "Content acceptable",
		Threshold: fmt.Sprintf("sensitive=false OR allowNSFW=%t", e.policy.AllowNSFW),
		Actual:    fmt.Sprintf("sensitive=%t", a.Sensitive()),
		Pass:      nsfwPass,
	})

	checks = append(checks, CheckResult{
		Name:      "Score",
		Threshold: fmt.Sprintf(">= %.1f", e.policy.MinScore),
		Actual:    fmt.Sprintf("%.1f", a.Score()),
		Pass:      a.Score() >= e.policy.MinScore,
	})

	checks = append(checks, CheckResult{
		Name:      "Confidence",
		Threshold: fmt.Sprintf(">= %.2f", e.policy.MinConfidence),
		Actual:    fmt.Sprintf("%.2f", a.Confidence()),
		Pass:      a.Confidence() >= e.policy.MinConfidence,
	})

	var hit []string
	for _, f := range a.RiskFlags() {
		if _, blocked := e.blocked[strings.ToLower(f)]; blocked {
			hit = append(hit, f)
		}
	}
	checks = append(checks, CheckResult{
		Name:      "No blocked risk flags",
		Threshold: "intersection empty",
		Actual:    fmt.Sprintf("blocked=%v", hit),
		Pass:      len(hit) == 0,
	})

	allowed := true
	for _, c := range checks {
		if !c.Pass {
			allowed = false
			break
		}
	}

	return &GateResult{Allowed: allowed, Checks: checks}
}

// ShouldLaunch is the boolean-only convenience form of Evaluate.
func ShouldLaunch(a domain.Analysis, p Policy) bool {
	return NewEvaluator(p).Evaluate(a).Allowed
}
