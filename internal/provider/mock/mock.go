package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"

	"github.com/samber/lo"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/provider"
)

// Provider implementa provider.Analyzer sem rede. É o fallback do caller:
// nunca falha, e o mesmo input sempre gera o mesmo resultado.
type Provider struct{}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "mock"
}

// ScoreSingle gera nota e textos determinísticos baseados no hash da imagem
func (p *Provider) ScoreSingle(ctx context.Context, img domain.Image, mode domain.Mode) (*domain.SingleResult, error) {
	r := seeded(img.Data, string(mode))

	return &domain.SingleResult{
		Rating:    rating(r),
		Comment:   pick(r, comments),
		Strengths: sample(r, strengths, domain.MinListItems+r.IntN(2)),
		Advice:    sample(r, advice, domain.MinListItems+r.IntN(2)),
	}, nil
}

// ScoreBattle pontua os dois concorrentes e monta o resultado da batalha
func (p *Provider) ScoreBattle(ctx context.Context, first, second domain.Image, mode domain.Mode) (*domain.BattleResult, error) {
	r1, _ := p.ScoreSingle(ctx, first, mode)
	r2, _ := p.ScoreSingle(ctx, second, mode)

	result := provider.BuildBattle(r1, r2)
	result.Comment = pick(seeded(append(append([]byte(nil), first.Data...), second.Data...), "battle"), battleComments)
	return result, nil
}

// Enhance devolve a própria imagem com um comentário, sem transformação
func (p *Provider) Enhance(ctx context.Context, img domain.Image) (*domain.EnhanceResult, error) {
	mediaType := img.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return &domain.EnhanceResult{
		Image: domain.Image{
			Data:      append([]byte(nil), img.Data...),
			MediaType: mediaType,
		},
		Comment: pick(seeded(img.Data, "enhance"), enhanceComments),
	}, nil
}

func seeded(data []byte, salt string) *rand.Rand {
	hash := sha256.Sum256(append([]byte(salt+":"), data...))
	return rand.New(rand.NewPCG(binary.BigEndian.Uint64(hash[0:8]), binary.BigEndian.Uint64(hash[8:16])))
}

// rating fica entre 5.0 e 9.9, ninguém sai humilhado do modo offline
func rating(r *rand.Rand) float64 {
	return domain.NormalizeRating(5.0 + float64(r.IntN(50))/10)
}

func pick(r *rand.Rand, items []string) string {
	return items[r.IntN(len(items))]
}

func sample(r *rand.Rand, items []string, n int) []string {
	perm := r.Perm(len(items))[:n]
	return lo.Map(perm, func(idx int, _ int) string {
		return items[idx]
	})
}

var _ provider.Analyzer = (*Provider)(nil)
