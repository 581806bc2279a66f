package domain

import "time"

// Source identifies the platform a signal originated from.
type Source string

const (
	SourceTwitter  Source = "twitter"
	SourceDiscord  Source = "discord"
	SourceTelegram Source = "telegram"
	SourceReddit   Source = "reddit"
	SourceUnknown  Source = "unknown"
)

// Signal is the canonical representation of one inbound message from any
// source. Immutable once created; identity is (Source, SourceID).
type Signal struct {
	Source          Source
	SourceID        string // platform-native message/tweet/post id
	Channel         string
	Author          string
	AuthorID        string
	Content         string
	RawPayload      any // original source payload, kept for audit
	HasMedia        bool
	MediaURLs       []string
	EngagementScore float64
	CreatedAt       time.Time
}

// Category classifies what kind of signal a message is.
type Category string

const (
	CategoryTokenMention  Category = "token_mention"
	CategoryLaunchAlert   Category = "launch_alert"
	CategoryWhaleMovement Category = "whale_movement"
	CategoryNews          Category = "news"
	CategorySentiment     Category = "sentiment"
	CategoryTechnical     Category = "technical"
	CategoryOther         Category = "other"
)

// AllCategories returns the valid categories in canonical order.
func AllCategories() []Category {
	return []Category{
		CategoryTokenMention,
		CategoryLaunchAlert,
		CategoryWhaleMovement,
		CategoryNews,
		CategorySentiment,
		CategoryTechnical,
		CategoryOther,
	}
}

// Priority ranks how quickly a signal should be acted on.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank maps a priority to an ordinal for comparisons (low=0 .. urgent=3).
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// ClassifiedSignal is a Signal annotated with scoring output and extracted
// entities. Produced once by the classifier, read-only afterward.
type ClassifiedSignal struct {
	Signal

	Category          Category
	Priority          Priority
	Confidence        float64 // [0,1]
	Risk              float64 // [0,1]
	Tickers           []string
	ContractAddresses []string
}
