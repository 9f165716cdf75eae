package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

// ErrUnsupported is returned by providers that cannot perform an operation
var ErrUnsupported = errors.New("operation not supported by provider")

// SingleScorer pontua uma única foto
type SingleScorer interface {
	ScoreSingle(ctx context.Context, img domain.Image, mode domain.Mode) (*domain.SingleResult, error)
}

// Analyzer define a interface para backends de análise de facha
type Analyzer interface {
	SingleScorer

	// Name identifica o provider nos logs
	Name() string

	// ScoreBattle compara duas fotos e decide o vencedor
	ScoreBattle(ctx context.Context, first, second domain.Image, mode domain.Mode) (*domain.BattleResult, error)

	// Enhance devolve uma versão transformada da foto
	Enhance(ctx context.Context, img domain.Image) (*domain.EnhanceResult, error)
}

// PartialFallbackError reports a battle whose contestants were scored, but at
// least one of them by the fallback scorer. Result is complete and valid.
type PartialFallbackError struct {
	Result *domain.BattleResult
	Errs   []error
}

func (e *PartialFallbackError) Error() string {
	return fmt.Sprintf("battle scored with fallback: %v", errors.Join(e.Errs...))
}

func (e *PartialFallbackError) Unwrap() []error {
	return e.Errs
}

// ScoreBattleConcurrently scores both contestants at the same time and joins the two
// results. A contestant whose primary score fails is scored by fallback instead; in that
// case the assembled result is returned inside a *PartialFallbackError. Without a
// fallback, the first failure is returned as is.
func ScoreBattleConcurrently(ctx context.Context, primary, fallback SingleScorer, first, second domain.Image, mode domain.Mode) (*domain.BattleResult, error) {
	images := [2]domain.Image{first, second}
	var scores [2]*domain.SingleResult
	var errs [2]error

	var wg sync.WaitGroup
	for i := range images {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scores[i], errs[i] = scoreOne(ctx, primary, images[i], mode)
		}(i)
	}
	wg.Wait()

	var absorbed []error
	for i := range scores {
		if errs[i] == nil {
			continue
		}
		if fallback == nil {
			return nil, errs[i]
		}
		mocked, err := fallback.ScoreSingle(ctx, images[i], mode)
		if err != nil {
			return nil, fmt.Errorf("fallback contestant %d: %w", i+1, err)
		}
		scores[i] = mocked
		absorbed = append(absorbed, fmt.Errorf("contestant %d: %w", i+1, errs[i]))
	}

	result := BuildBattle(scores[0], scores[1])
	if len(absorbed) > 0 {
		return nil, &PartialFallbackError{Result: result, Errs: absorbed}
	}
	return result, nil
}

func scoreOne(ctx context.Context, scorer SingleScorer, img domain.Image, mode domain.Mode) (*domain.SingleResult, error) {
	result, err := scorer.ScoreSingle(ctx, img, mode)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("malformed single result: %w", err)
	}
	return result, nil
}

// BuildBattle assembles a battle result from two single scores.
// The winner explanation takes the winner's strengths first, then its advice
// turned around against the loser.
func BuildBattle(r1, r2 *domain.SingleResult) *domain.BattleResult {
	rating1 := domain.NormalizeRating(r1.Rating)
	rating2 := domain.NormalizeRating(r2.Rating)
	winner, tie := domain.DecideWinner(rating1, rating2)

	win, lose := r1, r2
	if winner == 2 {
		win, lose = r2, r1
	}

	explanation := make([]string, 0, domain.WinnerExplanationItems)
	for _, s := range win.Strengths {
		if len(explanation) == domain.WinnerExplanationItems {
			break
		}
		explanation = append(explanation, s)
	}
	for _, a := range lose.Advice {
		if len(explanation) == domain.WinnerExplanationItems {
			break
		}
		explanation = append(explanation, "El rival todavía tiene que trabajar esto: "+a)
	}

	comment := win.Comment
	if tie {
		comment = "Empate técnico, pero el reglamento favorece al contendiente 2. " + win.Comment
	}

	return &domain.BattleResult{
		Rating1:           rating1,
		Rating2:           rating2,
		Winner:            winner,
		Tie:               tie,
		Comment:           comment,
		WinnerExplanation: explanation,
	}
}
