package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MinRating = 1.0
	MaxRating = 10.0

	MinListItems           = 3
	MaxListItems           = 5
	WinnerExplanationItems = 4

	MaxImageSize = 10 * 1024 * 1024 // 10MB
)

// Mode influences the sampling temperature of the backend.
type Mode string

const (
	ModeRapido   Mode = "rapido"
	ModeCreativo Mode = "creativo"
)

// ParseMode accepts an empty string as rapido.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRapido:
		return ModeRapido, nil
	case ModeCreativo:
		return ModeCreativo, nil
	default:
		return "", ErrValidationFailed.WithError(fmt.Errorf("unknown mode %q", s))
	}
}

// Temperature returns the sampling temperature for the mode.
func (m Mode) Temperature() float64 {
	if m == ModeCreativo {
		return 0.9
	}
	return 0.4
}

var validMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// IsValidMediaType reports whether the media type is accepted for analysis.
func IsValidMediaType(mediaType string) bool {
	return validMediaTypes[mediaType]
}

// Image is an encoded picture plus its declared media type.
type Image struct {
	Data      []byte `json:"data"`
	MediaType string `json:"media_type"`
}

func (i Image) Validate() error {
	if len(i.Data) == 0 || len(i.Data) > MaxImageSize {
		return ErrInvalidImage.WithError(fmt.Errorf("image size %d out of range", len(i.Data)))
	}
	if !IsValidMediaType(i.MediaType) {
		return ErrInvalidImage.WithError(fmt.Errorf("unsupported media type %q", i.MediaType))
	}
	return nil
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

func (i Image) DataURL() string {
	return "data:" + i.MediaType + ";base64," + i.Base64()
}

// AnalysisKind discriminates requests and results.
type AnalysisKind string

const (
	KindSingle  AnalysisKind = "single"
	KindBattle  AnalysisKind = "battle"
	KindEnhance AnalysisKind = "enhance"
)

// SingleResult is the score of one photo.
type SingleResult struct {
	Rating    float64  `json:"rating"`
	Comment   string   `json:"comment"`
	Strengths []string `json:"strengths"`
	Advice    []string `json:"advice"`
}

func (r *SingleResult) Validate() error {
	if r.Rating < MinRating || r.Rating > MaxRating || math.IsNaN(r.Rating) {
		return fmt.Errorf("rating %.2f out of range", r.Rating)
	}
	if strings.TrimSpace(r.Comment) == "" {
		return errors.New("empty comment")
	}
	if n := len(r.Strengths); n < MinListItems || n > MaxListItems {
		return fmt.Errorf("expected %d-%d strengths, got %d", MinListItems, MaxListItems, n)
	}
	if n := len(r.Advice); n < MinListItems || n > MaxListItems {
		return fmt.Errorf("expected %d-%d advice items, got %d", MinListItems, MaxListItems, n)
	}
	return nil
}

// BattleResult compares two contestants.
type BattleResult struct {
	Rating1           float64  `json:"rating1"`
	Rating2           float64  `json:"rating2"`
	Winner            int      `json:"winner"`
	Tie               bool     `json:"tie"`
	Comment           string   `json:"comment"`
	WinnerExplanation []string `json:"winner_explanation"`
}

func (r *BattleResult) Validate() error {
	for _, rating := range []float64{r.Rating1, r.Rating2} {
		if rating < MinRating || rating > MaxRating || math.IsNaN(rating) {
			return fmt.Errorf("rating %.2f out of range", rating)
		}
	}
	if want, _ := DecideWinner(r.Rating1, r.Rating2); r.Winner != want {
		return fmt.Errorf("winner %d does not match ratings", r.Winner)
	}
	if strings.TrimSpace(r.Comment) == "" {
		return errors.New("empty comment")
	}
	if len(r.WinnerExplanation) != WinnerExplanationItems {
		return fmt.Errorf("expected %d winner explanations, got %d", WinnerExplanationItems, len(r.WinnerExplanation))
	}
	return nil
}

// EnhanceResult carries a transformed picture.
type EnhanceResult struct {
	Image   Image  `json:"image"`
	Comment string `json:"comment"`
}

func (r *EnhanceResult) Validate() error {
	if len(r.Image.Data) == 0 {
		return errors.New("empty enhanced image")
	}
	if r.Image.MediaType == "" {
		return errors.New("missing media type")
	}
	return nil
}

// AnalysisResult is a tagged union: exactly one payload matches Kind.
type AnalysisResult struct {
	Kind    AnalysisKind   `json:"kind"`
	IsMock  bool           `json:"is_mock"`
	Single  *SingleResult  `json:"single,omitempty"`
	Battle  *BattleResult  `json:"battle,omitempty"`
	Enhance *EnhanceResult `json:"enhance,omitempty"`
}

// Validate checks the structural rules of the payload selected by Kind.
func (r *AnalysisResult) Validate() error {
	if r == nil {
		return errors.New("nil result")
	}
	switch r.Kind {
	case KindSingle:
		if r.Single == nil {
			return errors.New("missing single payload")
		}
		return r.Single.Validate()
	case KindBattle:
		if r.Battle == nil {
			return errors.New("missing battle payload")
		}
		return r.Battle.Validate()
	case KindEnhance:
		if r.Enhance == nil {
			return errors.New("missing enhance payload")
		}
		return r.Enhance.Validate()
	default:
		return fmt.Errorf("unknown result kind %q", r.Kind)
	}
}

// NormalizeRating clamps to [1, 10] and keeps one decimal.
func NormalizeRating(r float64) float64 {
	if math.IsNaN(r) {
		return MinRating
	}
	r = math.Max(MinRating, math.Min(MaxRating, r))
	return math.Round(r*10) / 10
}

// DecideWinner returns 1 only when the first rating is strictly greater.
// Ties go to contestant 2 and are flagged.
func DecideWinner(rating1, rating2 float64) (winner int, tie bool) {
	if rating1 > rating2 {
		return 1, false
	}
	return 2, rating1 == rating2
}
