package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	googleai "google.golang.org/genai"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider"
)

const (
	singleInstruction = `Calificá la "facha" de la persona en la foto con humor y sin ofender. ` +
		`Respondé solo JSON: {"rating": número 1-10 con un decimal, "comment": texto, ` +
		`"strengths": 3 a 5 textos, "advice": 3 a 5 textos}.`

	battleInstruction = `Compará la "facha" de las dos fotos (foto 1 y foto 2) con humor y sin ofender. ` +
		`Respondé solo JSON: {"rating1": número 1-10, "rating2": número 1-10, "comment": texto, ` +
		`"winnerExplanation": exactamente 4 textos}.`

	enhanceInstruction = `Devolvé esta misma foto con más facha: mejor luz, encuadre y colores. ` +
		`Sumá un comentario corto.`
)

// singlePayload is the JSON the model is asked to produce for one photo
type singlePayload struct {
	Rating    float64  `json:"rating"`
	Comment   string   `json:"comment"`
	Strengths []string `json:"strengths"`
	Advice    []string `json:"advice"`
}

// battlePayload is the JSON the model is asked to produce for a battle
type battlePayload struct {
	Rating1           float64  `json:"rating1"`
	Rating2           float64  `json:"rating2"`
	Comment           string   `json:"comment"`
	WinnerExplanation []string `json:"winnerExplanation"`
}

// Provider implements provider.Analyzer on the Gemini API
type Provider struct {
	client *Client
}

// NewProvider creates a Gemini-backed provider
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	client, err := NewClient(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewProviderWithClient(client), nil
}

// NewProviderWithClient creates a provider over an existing client
func NewProviderWithClient(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string {
	return "genai"
}

// ScoreSingle asks the model for a single-photo score
func (p *Provider) ScoreSingle(ctx context.Context, img domain.Image, mode domain.Mode) (*domain.SingleResult, error) {
	var payload singlePayload
	err := p.generateJSON(ctx, mode, &payload,
		googleai.NewPartFromText(singleInstruction),
		imagePart(img),
	)
	if err != nil {
		return nil, fmt.Errorf("score single: %w", err)
	}

	result := &domain.SingleResult{
		Rating:    domain.NormalizeRating(payload.Rating),
		Comment:   strings.TrimSpace(payload.Comment),
		Strengths: payload.Strengths,
		Advice:    payload.Advice,
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("score single: %w: %v", ErrInvalidResponse, err)
	}
	return result, nil
}

// ScoreBattle sends both photos in one request; the winner is derived from the ratings
func (p *Provider) ScoreBattle(ctx context.Context, first, second domain.Image, mode domain.Mode) (*domain.BattleResult, error) {
	var payload battlePayload
	err := p.generateJSON(ctx, mode, &payload,
		googleai.NewPartFromText(battleInstruction),
		googleai.NewPartFromText("Foto 1:"), imagePart(first),
		googleai.NewPartFromText("Foto 2:"), imagePart(second),
	)
	if err != nil {
		return nil, fmt.Errorf("score battle: %w", err)
	}

	rating1 := domain.NormalizeRating(payload.Rating1)
	rating2 := domain.NormalizeRating(payload.Rating2)
	winner, tie := domain.DecideWinner(rating1, rating2)

	result := &domain.BattleResult{
		Rating1:           rating1,
		Rating2:           rating2,
		Winner:            winner,
		Tie:               tie,
		Comment:           strings.TrimSpace(payload.Comment),
		WinnerExplanation: payload.WinnerExplanation,
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("score battle: %w: %v", ErrInvalidResponse, err)
	}
	return result, nil
}

// Enhance asks the model for an image back
func (p *Provider) Enhance(ctx context.Context, img domain.Image) (*domain.EnhanceResult, error) {
	genConfig := &googleai.GenerateContentConfig{
		Temperature:        temperature(domain.ModeRapido),
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	candidate, err := p.client.GenerateContent(ctx,
		[]*googleai.Part{googleai.NewPartFromText(enhanceInstruction), imagePart(img)},
		genConfig,
	)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}

	result := &domain.EnhanceResult{}
	var comments []string
	for _, part := range candidate.Content.Parts {
		switch {
		case part == nil || part.Thought:
		case part.InlineData != nil && len(part.InlineData.Data) > 0 && len(result.Image.Data) == 0:
			result.Image = domain.Image{Data: part.InlineData.Data, MediaType: part.InlineData.MIMEType}
		case strings.TrimSpace(part.Text) != "":
			comments = append(comments, strings.TrimSpace(part.Text))
		}
	}

	if len(result.Image.Data) == 0 {
		return nil, fmt.Errorf("enhance: %w", ErrNoImageInContent)
	}
	result.Comment = strings.Join(comments, " ")
	return result, nil
}

func (p *Provider) generateJSON(ctx context.Context, mode domain.Mode, dest any, parts ...*googleai.Part) error {
	candidate, err := p.client.GenerateContent(ctx, parts, &googleai.GenerateContentConfig{
		Temperature:      temperature(mode),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return err
	}

	text := firstText(candidate.Content)
	if text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidResponse)
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func temperature(mode domain.Mode) *float32 {
	return googleai.Ptr(float32(mode.Temperature()))
}

func imagePart(img domain.Image) *googleai.Part {
	return googleai.NewPartFromBytes(img.Data, img.MediaType)
}

func firstText(content *googleai.Content) string {
	for _, part := range content.Parts {
		if part != nil && !part.Thought && strings.TrimSpace(part.Text) != "" {
			return part.Text
		}
	}
	return ""
}

// stripCodeFence removes a ```json fence some models wrap around the payload
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

var _ provider.Analyzer = (*Provider)(nil)
