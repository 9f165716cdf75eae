package genai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	googleai "google.golang.org/genai"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

var testImg = domain.Image{Data: []byte("fake-jpeg-bytes"), MediaType: "image/jpeg"}

func providerReturning(resp *googleai.GenerateContentResponse) (*Provider, *MockGenerator) {
	gen := new(MockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(resp, nil)
	return NewProviderWithClient(newTestClient(gen, 0)), gen
}

func TestProvider_ScoreSingle(t *testing.T) {
	body := "```json\n" + `{"rating": 8.34, "comment": "Tremenda facha", "strengths": ["a","b","c"], "advice": ["x","y","z"]}` + "\n```"
	p, gen := providerReturning(textResponse(body))

	result, err := p.ScoreSingle(context.Background(), testImg, domain.ModeCreativo)
	require.NoError(t, err)
	assert.Equal(t, 8.3, result.Rating)
	assert.Equal(t, "Tremenda facha", result.Comment)

	contents := gen.Calls[0].Arguments.Get(2).([]*googleai.Content)
	genConfig := gen.Calls[0].Arguments.Get(3).(*googleai.GenerateContentConfig)
	require.Len(t, contents, 1)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, testImg.Data, contents[0].Parts[1].InlineData.Data)
	assert.Equal(t, "image/jpeg", contents[0].Parts[1].InlineData.MIMEType)
	assert.InDelta(t, 0.9, float64(*genConfig.Temperature), 0.001)
	assert.Equal(t, "application/json", genConfig.ResponseMIMEType)
}

func TestProvider_ScoreSingle_Malformed(t *testing.T) {
	p, _ := providerReturning(textResponse(`{"rating": 8, "comment": "ok", "strengths": ["only one"], "advice": []}`))

	_, err := p.ScoreSingle(context.Background(), testImg, domain.ModeRapido)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestProvider_ScoreBattle(t *testing.T) {
	p, gen := providerReturning(textResponse(`{"rating1": 8.3, "rating2": 6.1, "comment": "Ganó la 1", "winnerExplanation": ["a","b","c","d"]}`))

	result, err := p.ScoreBattle(context.Background(), testImg, testImg, domain.ModeRapido)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Winner)
	assert.False(t, result.Tie)
	assert.Len(t, result.WinnerExplanation, 4)

	contents := gen.Calls[0].Arguments.Get(2).([]*googleai.Content)
	assert.Len(t, contents[0].Parts, 5)
}

func TestProvider_ScoreBattle_WrongExplanationCount(t *testing.T) {
	p, _ := providerReturning(textResponse(`{"rating1": 8.3, "rating2": 6.1, "comment": "x", "winnerExplanation": ["a"]}`))

	_, err := p.ScoreBattle(context.Background(), testImg, testImg, domain.ModeRapido)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestProvider_Enhance(t *testing.T) {
	enhanced := []byte("enhanced-png")
	p, gen := providerReturning(&googleai.GenerateContentResponse{
		Candidates: []*googleai.Candidate{{
			Content: googleai.NewContentFromParts([]*googleai.Part{
				googleai.NewPartFromText("Listo, más facha."),
				googleai.NewPartFromBytes(enhanced, "image/png"),
			}, googleai.RoleModel),
		}},
	})

	result, err := p.Enhance(context.Background(), testImg)
	require.NoError(t, err)
	assert.Equal(t, enhanced, result.Image.Data)
	assert.Equal(t, "image/png", result.Image.MediaType)
	assert.Equal(t, "Listo, más facha.", result.Comment)

	genConfig := gen.Calls[0].Arguments.Get(3).(*googleai.GenerateContentConfig)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, genConfig.ResponseModalities)
}

func TestProvider_Enhance_NoImage(t *testing.T) {
	p, _ := providerReturning(textResponse("no puedo"))

	_, err := p.Enhance(context.Background(), testImg)
	assert.ErrorIs(t, err, ErrNoImageInContent)
}
