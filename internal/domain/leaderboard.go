package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxNameLength = 30

// LeaderboardEntry is an immutable record of a single-photo score.
type LeaderboardEntry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"` // data URL, owned by this entry
	CreatedAt time.Time `json:"created_at"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
	Strengths []string  `json:"strengths"`
	Advice    []string  `json:"advice"`
}

// NewLeaderboardEntry copies the single result into a fresh entry.
func NewLeaderboardEntry(name, image string, result SingleResult, now time.Time) (*LeaderboardEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidationFailed.WithError(errors.New("name is required"))
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrValidationFailed.WithError(errors.New("name must be at most 30 characters"))
	}
	if err := result.Validate(); err != nil {
		return nil, ErrValidationFailed.WithError(err)
	}

	return &LeaderboardEntry{
		ID:        uuid.New(),
		Name:      name,
		Image:     image,
		CreatedAt: now.UTC(),
		Rating:    NormalizeRating(result.Rating),
		Comment:   result.Comment,
		Strengths: append([]string(nil), result.Strengths...),
		Advice:    append([]string(nil), result.Advice...),
	}, nil
}
