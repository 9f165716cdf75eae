package caller

import "context"

// Admission decides whether a call that passed the cooldown may run.
// Admit runs under the per-client lock right after the cooldown check;
// Delay runs once the slot is claimed and the lock released.
type Admission interface {
	Admit(ctx context.Context, clientID string) error
	Delay(ctx context.Context) error
}

type openAdmission struct{}

func (openAdmission) Admit(context.Context, string) error { return nil }
func (openAdmission) Delay(context.Context) error         { return nil }
