// Package normalize converts source-native messages into the canonical
// Signal shape. Purely a shape adapter: no business logic or scoring
// happens here, and malformed input degrades to safe defaults instead of
// failing.
package normalize

import (
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"launch-radar/internal/domain"
)

const unknownAuthor = "unknown"

// DiscordAttachment is one file or embed attached to a Discord message.
type DiscordAttachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// DiscordMessage is the subset of a Discord gateway message the adapter
// consumes.
type DiscordMessage struct {
	ID          string              `json:"id"`
	ChannelID   string              `json:"channel_id"`
	ChannelName string              `json:"channel_name"`
	Author      string              `json:"author"`
	AuthorID    string              `json:"author_id"`
	Content     string              `json:"content"`
	Attachments []DiscordAttachment `json:"attachments"`
	Timestamp   time.Time           `json:"timestamp"`
}

// FromDiscord builds a Signal from a Discord message.
func FromDiscord(msg *DiscordMessage) *domain.Signal {
	if msg == nil {
		return emptySignal(domain.SourceDiscord)
	}

	var mediaURLs []string
	for _, a := range msg.Attachments {
		if a.URL != "" {
			mediaURLs = append(mediaURLs, a.URL)
		}
	}

	sig := &domain.Signal{
		Source:     domain.SourceDiscord,
		SourceID:   msg.ID,
		Channel:    msg.ChannelName,
		Author:     msg.Author,
		AuthorID:   msg.AuthorID,
		Content:    msg.Content,
		RawPayload: msg,
		HasMedia:   len(mediaURLs) > 0,
		MediaURLs:  mediaURLs,
		CreatedAt:  msg.Timestamp,
	}
	applyDefaults(sig)
	return sig
}

// FromTelegram builds a Signal from a Telegram bot API message.
func FromTelegram(msg *tgbotapi.Message) *domain.Signal {
	if msg == nil {
		return emptySignal(domain.SourceTelegram)
	}

	sig := &domain.Signal{
		Source:     domain.SourceTelegram,
		SourceID:   strconv.Itoa(msg.MessageID),
		Content:    msg.Text,
		RawPayload: msg,
		HasMedia:   len(msg.Photo) > 0 || msg.Video != nil || msg.Document != nil,
		CreatedAt:  time.Unix(int64(msg.Date), 0).UTC(),
	}
	if msg.Chat != nil {
		sig.Channel = msg.Chat.Title
		if sig.Channel == "" {
			sig.Channel = msg.Chat.UserName
		}
	}
	if msg.From != nil {
		sig.Author = msg.From.UserName
		if sig.Author == "" {
			sig.Author = msg.From.FirstName
		}
		sig.AuthorID = strconv.FormatInt(msg.From.ID, 10)
	}
	if sig.Content == "" {
		sig.Content = msg.Caption
	}
	applyDefaults(sig)
	return sig
}

// Tweet is the subset of a tweet payload the adapter consumes.
type Tweet struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	MediaURLs []string  `json:"media_urls"`
	Likes     int       `json:"likes"`
	Retweets  int       `json:"retweets"`
	Replies   int       `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// FromTweet builds a Signal from a tweet. Engagement weighs retweets
// above likes and replies.
func FromTweet(t *Tweet) *domain.Signal {
	if t == nil {
		return emptySignal(domain.SourceTwitter)
	}

	sig := &domain.Signal{
		Source:          domain.SourceTwitter,
		SourceID:        t.ID,
		Author:          t.Author,
		AuthorID:        t.AuthorID,
		Content:         t.Text,
		RawPayload:      t,
		HasMedia:        len(t.MediaURLs) > 0,
		MediaURLs:       t.MediaURLs,
		EngagementScore: float64(t.Likes) + 2*float64(t.Retweets) + 0.5*float64(t.Replies),
		CreatedAt:       t.CreatedAt,
	}
	applyDefaults(sig)
	return sig
}

// GenericMessage is the source-agnostic payload accepted from adapters
// without a dedicated shape (NDJSON feeds, webhooks).
type GenericMessage struct {
	Source    string    `json:"source"`
	SourceID  string    `json:"source_id"`
	Channel   string    `json:"channel"`
	Author    string    `json:"author"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	MediaURLs []string  `json:"media_urls"`
	CreatedAt time.Time `json:"created_at"`
}

// FromGeneric builds a Signal from a generic message.
func FromGeneric(msg *GenericMessage) *domain.Signal {
	if msg == nil {
		return emptySignal(domain.SourceUnknown)
	}

	source := domain.Source(msg.Source)
	switch source {
	case domain.SourceTwitter, domain.SourceDiscord, domain.SourceTelegram, domain.SourceReddit:
	default:
		source = domain.SourceUnknown
	}

	sig := &domain.Signal{
		Source:     source,
		SourceID:   msg.SourceID,
		Channel:    msg.Channel,
		Author:     msg.Author,
		AuthorID:   msg.AuthorID,
		Content:    msg.Content,
		RawPayload: msg,
		HasMedia:   len(msg.MediaURLs) > 0,
		MediaURLs:  msg.MediaURLs,
		CreatedAt:  msg.CreatedAt,
	}
	applyDefaults(sig)
	return sig
}

// applyDefaults substitutes safe defaults for missing fields.
func applyDefaults(sig *domain.Signal) {
	if sig.Author == "" {
		sig.Author = unknownAuthor
	}
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}
}

func emptySignal(source domain.Source) *domain.Signal {
	return &domain.Signal{
		Source:    source,
		Author:    unknownAuthor,
		CreatedAt: time.Now().UTC(),
	}
}
