package domain

import "strings"

// UserProfile is the raw onboarding input. It is not modified by the pipeline.
type UserProfile struct {
	UserID       string   `json:"user_id" validate:"required,max=64"`
	Bio          string   `json:"bio" validate:"max=2000"`
	InterestTags []string `json:"interest_tags" validate:"max=20,dive,max=64"`
	City         string   `json:"city" validate:"required,max=128"`
	Timezone     string   `json:"timezone" validate:"required,max=64"`
}

// EnrichedProfile is the sanitized bio plus extracted tags.
type EnrichedProfile struct {
	SanitizedBio string   `json:"sanitized_bio"`
	EnrichedTags []string `json:"enriched_tags"`
	PIIFound     bool     `json:"pii_found"`
}

// EmbeddingText builds the text that is embedded for matching.
func (p EnrichedProfile) EmbeddingText() string {
	return "Bio: " + p.SanitizedBio + "\nInterests: " + strings.Join(p.EnrichedTags, ", ")
}

// BroadcastChannel is the pub/sub channel on which a user's results are announced.
func BroadcastChannel(userID string) string {
	return "match_updates_" + userID
}
