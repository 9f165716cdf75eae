package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

func testImage(seed byte) domain.Image {
	data := make([]byte, 2048)
	for i := range data {
		data[i] = byte(i) ^ seed
	}
	return domain.Image{Data: data, MediaType: "image/jpeg"}
}

func TestProvider_ScoreSingle(t *testing.T) {
	p := New()
	ctx := context.Background()

	for _, seed := range []byte{0, 1, 7, 42, 255} {
		result, err := p.ScoreSingle(ctx, testImage(seed), domain.ModeRapido)
		require.NoError(t, err)
		assert.NoError(t, result.Validate())
		assert.GreaterOrEqual(t, result.Rating, 5.0)
		assert.LessOrEqual(t, result.Rating, 9.9)
	}
}

func TestProvider_ScoreSingle_Deterministic(t *testing.T) {
	p := New()
	ctx := context.Background()

	a, err := p.ScoreSingle(ctx, testImage(3), domain.ModeCreativo)
	require.NoError(t, err)
	b, err := p.ScoreSingle(ctx, testImage(3), domain.ModeCreativo)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestProvider_ScoreSingle_EmptyImage(t *testing.T) {
	result, err := New().ScoreSingle(context.Background(), domain.Image{}, domain.ModeRapido)
	require.NoError(t, err)
	assert.NoError(t, result.Validate())
}

func TestProvider_ScoreBattle(t *testing.T) {
	p := New()

	result, err := p.ScoreBattle(context.Background(), testImage(1), testImage(2), domain.ModeRapido)
	require.NoError(t, err)
	assert.NoError(t, result.Validate())
	assert.Len(t, result.WinnerExplanation, domain.WinnerExplanationItems)
}

func TestProvider_Enhance(t *testing.T) {
	img := testImage(9)

	result, err := New().Enhance(context.Background(), img)
	require.NoError(t, err)
	assert.NoError(t, result.Validate())
	assert.Equal(t, img.Data, result.Image.Data)
	assert.NotEmpty(t, result.Comment)
}
