package domain

import (
	"errors"
	"time"
)

const MaxRequestDelaySeconds = 60

// EmergencyConfig holds the operator switches read by the client flow.
type EmergencyConfig struct {
	MaintenanceMode     bool `json:"maintenanceMode"`
	MaxRequestsPerHour  int  `json:"maxRequestsPerHour"`
	RequestDelaySeconds int  `json:"requestDelaySeconds"`
}

func (c EmergencyConfig) Validate() error {
	if c.MaxRequestsPerHour < 0 {
		return ErrValidationFailed.WithError(errors.New("maxRequestsPerHour must be >= 0"))
	}
	if c.RequestDelaySeconds < 0 || c.RequestDelaySeconds > MaxRequestDelaySeconds {
		return ErrValidationFailed.WithError(errors.New("requestDelaySeconds must be between 0 and 60"))
	}
	return nil
}

// Unlimited reports whether the hourly quota is disabled.
func (c EmergencyConfig) Unlimited() bool {
	return c.MaxRequestsPerHour <= 0
}

func (c EmergencyConfig) Delay() time.Duration {
	return time.Duration(c.RequestDelaySeconds) * time.Second
}
