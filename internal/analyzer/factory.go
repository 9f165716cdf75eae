package analyzer

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/config"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider/genai"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider/rekognition"
)

// ProviderType defines supported analysis backends
type ProviderType string

const (
	// ProviderTypeMock synthesizes results locally (dev/test, and the fallback)
	ProviderTypeMock ProviderType = "mock"
	// ProviderTypeGenAI is the generative-AI backend
	ProviderTypeGenAI ProviderType = "genai"
	// ProviderTypeRekognition scores faces with AWS Rekognition
	ProviderTypeRekognition ProviderType = "rekognition"
)

// New creates the primary analyzer based on configuration
//
// Environment variables:
//   - ANALYZER_PROVIDER: "mock", "genai" or "rekognition" (default: "mock")
//   - GENAI_API_KEY (required for genai), GENAI_MODEL, GENAI_TIMEOUT, GENAI_URL: Gemini API
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
func New(ctx context.Context, cfg *config.Config) (provider.Analyzer, error) {
	switch ProviderType(cfg.AnalyzerProvider) {
	case ProviderTypeGenAI:
		return createGenAIProvider(ctx, cfg)

	case ProviderTypeRekognition:
		return createRekognitionProvider(ctx, cfg)

	case ProviderTypeMock, "":
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.AnalyzerProvider, ProviderTypeMock, ProviderTypeGenAI, ProviderTypeRekognition)
	}
}

// Fallback returns the analyzer used when the primary one fails
func Fallback() provider.Analyzer {
	return mock.New()
}

func createGenAIProvider(ctx context.Context, cfg *config.Config) (provider.Analyzer, error) {
	genaiConfig := genai.DefaultConfig()
	if cfg.GenAIURL != "" {
		genaiConfig.BaseURL = cfg.GenAIURL
	}
	if cfg.GenAIModel != "" {
		genaiConfig.Model = cfg.GenAIModel
	}
	if cfg.GenAITimeout > 0 {
		genaiConfig.Timeout = cfg.GenAITimeout
	}
	genaiConfig.APIKey = cfg.GenAIAPIKey

	prov, err := genai.NewProvider(ctx, genaiConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai provider: %w", err)
	}
	return prov, nil
}

func createRekognitionProvider(ctx context.Context, cfg *config.Config) (provider.Analyzer, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig, rekognition.WithFallback(Fallback()))
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}
	return prov, nil
}
