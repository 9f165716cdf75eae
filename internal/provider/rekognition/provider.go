package rekognition

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// Provider implements provider.Analyzer on top of Rekognition face attributes.
// Rekognition has no notion of a battle, so both contestants are scored
// concurrently; it cannot produce images, so Enhance is unsupported.
type Provider struct {
	client   *Client
	fallback provider.SingleScorer
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithFallback sets the scorer used for a battle contestant whose detection failed
func WithFallback(scorer provider.SingleScorer) ProviderOption {
	return func(p *Provider) {
		p.fallback = scorer
	}
}

var _ provider.Analyzer = (*Provider)(nil)

// NewProvider creates a new Rekognition provider
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithClient(client, opts...), nil
}

// NewProviderWithClient creates a provider over an existing client
func NewProviderWithClient(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "rekognition"
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// ScoreSingle scores the most prominent face in the image
func (p *Provider) ScoreSingle(ctx context.Context, img domain.Image, mode domain.Mode) (*domain.SingleResult, error) {
	if err := validateImage(img.Data); err != nil {
		return nil, err
	}

	faces, err := p.client.DetectFaces(ctx, img.Data)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, ErrNoFaceDetected
	}

	return scoreFace(largestFace(faces)), nil
}

// ScoreBattle scores both contestants concurrently
func (p *Provider) ScoreBattle(ctx context.Context, first, second domain.Image, mode domain.Mode) (*domain.BattleResult, error) {
	return provider.ScoreBattleConcurrently(ctx, p, p.fallback, first, second, mode)
}

func (p *Provider) Enhance(ctx context.Context, img domain.Image) (*domain.EnhanceResult, error) {
	return nil, fmt.Errorf("rekognition enhance: %w", provider.ErrUnsupported)
}

func largestFace(faces []types.FaceDetail) types.FaceDetail {
	best := faces[0]
	for _, face := range faces[1:] {
		if area(face) > area(best) {
			best = face
		}
	}
	return best
}

func area(face types.FaceDetail) float32 {
	if face.BoundingBox == nil || face.BoundingBox.Width == nil || face.BoundingBox.Height == nil {
		return 0
	}
	return *face.BoundingBox.Width * *face.BoundingBox.Height
}

// scoreFace turns face attributes into a facha score. Every attribute that
// helps becomes a strength; every one that hurts becomes advice.
func scoreFace(face types.FaceDetail) *domain.SingleResult {
	rating := 5.0
	var strengths, advice []string

	if face.Smile != nil && face.Smile.Value {
		rating += 1.5
		strengths = append(strengths, "Sonrisa que desarma a cualquiera")
	} else {
		advice = append(advice, "Animate a sonreír, suma puntos")
	}

	if face.EyesOpen != nil && face.EyesOpen.Value {
		rating += 0.5
		strengths = append(strengths, "Mirada despierta y presente")
	} else {
		advice = append(advice, "Ojos bien abiertos para la próxima")
	}

	quality := qualityScore(face.Quality)
	rating += quality * 2
	if quality >= 0.6 {
		strengths = append(strengths, "Foto nítida y bien iluminada")
	} else {
		advice = append(advice, "Buscá mejor luz y mantené el pulso firme")
	}

	if emotion := dominantEmotion(face.Emotions); emotion == types.EmotionNameHappy || emotion == types.EmotionNameCalm {
		rating += 1
		strengths = append(strengths, "Transmitís buena onda")
	} else {
		advice = append(advice, "Relajá la cara, se nota la tensión")
	}

	if face.Pose != nil && face.Pose.Yaw != nil && math.Abs(float64(*face.Pose.Yaw)) > 30 {
		rating -= 0.5
		advice = append(advice, "Mirá un poco más a la cámara")
	} else {
		strengths = append(strengths, "Buen ángulo de cara")
	}

	if face.Sunglasses != nil && face.Sunglasses.Value {
		strengths = append(strengths, "Anteojos de sol con actitud")
	}

	return &domain.SingleResult{
		Rating:    domain.NormalizeRating(rating),
		Comment:   commentFor(rating),
		Strengths: fill(strengths, genericStrengths),
		Advice:    fill(advice, genericAdvice),
	}
}

// qualityScore computes an overall quality score from Rekognition quality metrics
// Returns a score between 0.0 (poor quality) and 1.0 (excellent quality)
func qualityScore(quality *types.ImageQuality) float64 {
	if quality == nil {
		return 0.0
	}

	brightness := 0.0
	sharpness := 0.0
	if quality.Brightness != nil {
		brightness = float64(*quality.Brightness) / 100.0
	}
	if quality.Sharpness != nil {
		sharpness = float64(*quality.Sharpness) / 100.0
	}

	return brightness*0.3 + sharpness*0.7
}

func dominantEmotion(emotions []types.Emotion) types.EmotionName {
	var best types.EmotionName
	var bestConfidence float32
	for _, e := range emotions {
		if e.Confidence != nil && *e.Confidence > bestConfidence {
			best, bestConfidence = e.Type, *e.Confidence
		}
	}
	return best
}

func commentFor(rating float64) string {
	switch {
	case rating >= 9:
		return "Facha nivel internacional, la cámara pide autógrafo."
	case rating >= 7.5:
		return "Muy buena facha, con un par de ajustes rompés todo."
	case rating >= 6:
		return "Facha correcta, hay material para trabajar."
	default:
		return "Día difícil para la facha, pero todos tenemos uno."
	}
}

var genericStrengths = []string{"Presencia en cámara", "Naturalidad", "Estilo propio"}
var genericAdvice = []string{"Probá otro fondo", "Jugá con el encuadre", "Sacá varias y elegí la mejor"}

// fill pads items with generic entries up to the minimum and caps at the maximum
func fill(items, generic []string) []string {
	for _, g := range generic {
		if len(items) >= domain.MinListItems {
			break
		}
		items = append(items, g)
	}
	if len(items) > domain.MaxListItems {
		items = items[:domain.MaxListItems]
	}
	return items
}
