// Package classify scores signals for actionability and risk. Scoring is
// deterministic, has no I/O, and never suspends.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"launch-radar/internal/domain"
)

// Filter reasons reported alongside dropped signals.
const (
	ReasonLowConfidence = "low_confidence"
	ReasonHighRisk      = "high_risk"
)

// Score increments and trust adjustments.
const (
	launchKeywordWeight  = 0.15
	contractBonus        = 0.25
	spamKeywordWeight    = 0.2
	riskPatternWeight    = 0.15
	tickerWeight         = 0.2
	maxCountedTickers    = 3
	trustedChannelLaunch = 0.2
	trustedChannelSpam   = -0.3
	trustedUserLaunch    = 0.15
	trustedUserSpam      = -0.2
)

// Config drives the scorer. All lists are matched against lower-cased
// content; entity patterns run against the original-case content.
type Config struct {
	LaunchKeywords    []string `yaml:"launch_keywords"`
	SpamKeywords      []string `yaml:"spam_keywords"`
	WhaleKeywords     []string `yaml:"whale_keywords"`
	NewsKeywords      []string `yaml:"news_keywords"`
	SentimentKeywords []string `yaml:"sentiment_keywords"`
	TechnicalKeywords []string `yaml:"technical_keywords"`

	// HighRiskPatterns are regexes matched against lower-cased content,
	// e.g. solicitation ("send 1 sol"), click bait, invite links.
	HighRiskPatterns []string `yaml:"high_risk_patterns"`

	// TickerPattern and ContractPattern override the default entity
	// extraction regexes when non-empty.
	TickerPattern   string `yaml:"ticker_pattern"`
	ContractPattern string `yaml:"contract_pattern"`

	TrustedChannels []string `yaml:"trusted_channels"`
	TrustedUsers    []string `yaml:"trusted_users"`

	// Filter thresholds applied by Filtered.
	MinConfidence float64 `yaml:"min_confidence" env:"CLASSIFIER_MIN_CONFIDENCE"`
	MaxRisk       float64 `yaml:"max_risk" env:"CLASSIFIER_MAX_RISK"`
}

// DefaultConfig returns the stock keyword lists and thresholds.
func DefaultConfig() Config {
	return Config{
		LaunchKeywords: []string{
			"launch", "launching", "stealth", "fair launch", "minting",
			"lp locked", "renounced", "presale", "live now", "just deployed",
			"deploying", "token is live",
		},
		SpamKeywords: []string{
			"airdrop", "free", "giveaway", "dm me", "claim", "whitelist",
			"guaranteed", "100x", "no risk", "limited spots",
		},
		WhaleKeywords: []string{
			"whale", "large transfer", "big buy", "moved", "wallet moved",
		},
		NewsKeywords: []string{
			"breaking", "announced", "announcement", "report", "listed",
			"listing", "partnership", "acquired",
		},
		SentimentKeywords: []string{
			"bullish", "bearish", "moon", "dump", "pump", "sentiment",
			"feeling", "vibes",
		},
		TechnicalKeywords: []string{
			"support", "resistance", "breakout", "chart", "rsi", "macd",
			"fibonacci", "volume profile",
		},
		HighRiskPatterns: []string{
			`send\s+\d+(\.\d+)?\s*sol`,
			`click\s+here`,
			`(t\.me/|discord\.gg/|discord\.com/invite/)`,
			`connect\s+(your\s+)?wallet`,
		},
		MinConfidence: 0.3,
		MaxRisk:       0.6,
	}
}

// Default entity extraction patterns.
const (
	defaultTickerPattern   = `\$[A-Z]{2,10}\b`
	defaultContractPattern = `\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`
)

// Classifier is a compiled, reusable scorer. Safe for concurrent use.
type Classifier struct {
	cfg Config

	tickerRe   *regexp.Regexp
	contractRe *regexp.Regexp
	riskRes    []*regexp.Regexp

	trustedChannels map[string]struct{}
	trustedUsers    map[string]struct{}
}

// New compiles a Classifier from cfg.
func New(cfg Config) (*Classifier, error) {
	tickerPattern := cfg.TickerPattern
	if tickerPattern == "" {
		tickerPattern = defaultTickerPattern
	}
	contractPattern := cfg.ContractPattern
	if contractPattern == "" {
		contractPattern = defaultContractPattern
	}

	tickerRe, err := regexp.Compile(tickerPattern)
	if err != nil {
		return nil, fmt.Errorf("compile ticker pattern: %w", err)
	}
	contractRe, err := regexp.Compile(contractPattern)
	if err != nil {
		return nil, fmt.Errorf("compile contract pattern: %w", err)
	}

	riskRes := make([]*regexp.Regexp, 0, len(cfg.HighRiskPatterns))
	for _, p := range cfg.HighRiskPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile high-risk pattern %q: %w", p, err)
		}
		riskRes = append(riskRes, re)
	}

	c := &Classifier{
		cfg:             cfg,
		tickerRe:        tickerRe,
		contractRe:      contractRe,
		riskRes:         riskRes,
		trustedChannels: make(map[string]struct{}, len(cfg.TrustedChannels)),
		trustedUsers:    make(map[string]struct{}, len(cfg.TrustedUsers)),
	}
	for _, ch := range cfg.TrustedChannels {
		c.trustedChannels[strings.ToLower(ch)] = struct{}{}
	}
	for _, u := range cfg.TrustedUsers {
		c.trustedUsers[strings.ToLower(u)] = struct{}{}
	}
	return c, nil
}

// Classify scores one signal. Pure: no side effects, no suspension.
func (c *Classifier) Classify(sig *domain.Signal) *domain.ClassifiedSignal {
	content := ""
	if sig != nil {
		content = sig.Content
	}
	lower := strings.ToLower(content)

	// Entity extraction runs against the original-case content: tickers
	// are upper-case by convention; base58 is case-sensitive.
	tickers := dedupe(c.tickerRe.FindAllString(content, -1))
	contracts := ExtractContractAddresses(c.contractRe, content)

	var launchScore, spamScore, mentionScore float64

	for _, kw := range c.cfg.LaunchKeywords {
		if strings.Contains(lower, kw) {
			launchScore += launchKeywordWeight
		}
	}
	if len(contracts) > 0 {
		launchScore += contractBonus
	}

	for _, kw := range c.cfg.SpamKeywords {
		if strings.Contains(lower, kw) {
			spamScore += spamKeywordWeight
		}
	}
	for _, re := range c.riskRes {
		if re.MatchString(lower) {
			spamScore += riskPatternWeight
		}
	}

	counted := len(tickers)
	if counted > maxCountedTickers {
		counted = maxCountedTickers
	}
	mentionScore = float64(counted) * tickerWeight

	// Trust adjustments.
	if sig != nil {
		if _, ok := c.trustedChannels[strings.ToLower(sig.Channel)]; ok {
			launchScore += trustedChannelLaunch
			spamScore += trustedChannelSpam
		}
		if _, ok := c.trustedUsers[strings.ToLower(sig.Author)]; ok {
			launchScore += trustedUserLaunch
			spamScore += trustedUserSpam
		}
	}

	confidence := clamp01(launchScore + mentionScore)
	risk := clamp01(spamScore)

	category := c.category(lower, launchScore, tickers, contracts)
	priority := priorityFor(category, confidence, risk)

	cs := &domain.ClassifiedSignal{
		Category:          category,
		Priority:          priority,
		Confidence:        confidence,
		Risk:              risk,
		Tickers:           tickers,
		ContractAddresses: contracts,
	}
	if sig != nil {
		cs.Signal = *sig
	}
	return cs
}

// category decides the signal category. Evaluated in fixed precedence
// order; first match wins.
func (c *Classifier) category(lower string, launchScore float64, tickers, contracts []string) domain.Category {
	switch {
	case launchScore >= 0.3 && len(contracts) > 0:
		return domain.CategoryLaunchAlert
	case launchScore >= 0.2 || len(tickers) > 0:
		return domain.CategoryTokenMention
	case containsAny(lower, c.cfg.WhaleKeywords):
		return domain.CategoryWhaleMovement
	case containsAny(lower, c.cfg.NewsKeywords):
		return domain.CategoryNews
	case containsAny(lower, c.cfg.SentimentKeywords):
		return domain.CategorySentiment
	case containsAny(lower, c.cfg.TechnicalKeywords):
		return domain.CategoryTechnical
	default:
		return domain.CategoryOther
	}
}

// priorityFor applies the priority table top to bottom.
func priorityFor(category domain.Category, confidence, risk float64) domain.Priority {
	switch {
	case category == domain.CategoryLaunchAlert && confidence >= 0.7 && risk < 0.3:
		return domain.PriorityUrgent
	case confidence >= 0.6 && risk < 0.4:
		return domain.PriorityHigh
	case confidence >= 0.4:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// Filtered reports whether a classified signal should be dropped before
// the candidate cache / policy gate, and why.
func (c *Classifier) Filtered(cs *domain.ClassifiedSignal) (bool, string) {
	if cs.Confidence < c.cfg.MinConfidence {
		return true, ReasonLowConfidence
	}
	if cs.Risk > c.cfg.MaxRisk {
		return true, ReasonHighRisk
	}
	return false, ""
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func dedupe(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
