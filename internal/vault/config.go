// SPDX-License-Identifier: MIT
package vault

import (
	"fmt"
	"time"
)

// Config holds the immutable per-vault timing parameters. Never mutated after
// construction; bounds beyond positivity are enforced by the registry.
type Config struct {
	CheckInInterval time.Duration `json:"check_in_interval"`
	WarningPeriod   time.Duration `json:"warning_period"`
	GracePeriod     time.Duration `json:"grace_period"`
}

// Validate checks that all periods are positive.
func (c Config) Validate() error {
	if c.CheckInInterval <= 0 {
		return fmt.Errorf("%w: check-in interval must be positive", ErrInvalidConfig)
	}
	if c.WarningPeriod <= 0 {
		return fmt.Errorf("%w: warning period must be positive", ErrInvalidConfig)
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("%w: grace period must be positive", ErrInvalidConfig)
	}
	return nil
}
