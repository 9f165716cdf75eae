package caller

import (
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/domain"
)

// Request is one of SingleRequest, BattleRequest or EnhanceRequest.
type Request interface {
	Kind() domain.AnalysisKind
	Validate() error
}

// SingleRequest scores one photo.
type SingleRequest struct {
	Image domain.Image
	Mode  domain.Mode
}

func (r SingleRequest) Kind() domain.AnalysisKind { return domain.KindSingle }
func (r SingleRequest) Validate() error           { return r.Image.Validate() }

// BattleRequest compares two photos.
type BattleRequest struct {
	First  domain.Image
	Second domain.Image
	Mode   domain.Mode
}

func (r BattleRequest) Kind() domain.AnalysisKind { return domain.KindBattle }

func (r BattleRequest) Validate() error {
	if err := r.First.Validate(); err != nil {
		return err
	}
	return r.Second.Validate()
}

// EnhanceRequest asks for a transformed photo.
type EnhanceRequest struct {
	Image domain.Image
}

func (r EnhanceRequest) Kind() domain.AnalysisKind { return domain.KindEnhance }
func (r EnhanceRequest) Validate() error           { return r.Image.Validate() }
