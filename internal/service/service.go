// Package service holds the business operations behind the HTTP handlers and background jobs.
package service

import (
	"time"

	"landlords/config"
	"landlords/internal/repository"
	"landlords/pkg/levy"
)

// Clock returns the current time. Services default to UTC so levy dates compare consistently.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// currentPricing is the configured levy pricing with admin overrides applied.
func currentPricing(settings *repository.SettingRepository, cfg config.LevyConfig) levy.Pricing {
	base := levy.Pricing{
		FeePerRoomCents:   cfg.FeePerRoomCents,
		DiscountThreshold: cfg.DiscountThreshold,
		DiscountPercent:   cfg.DiscountPercent,
	}
	if settings == nil {
		return base
	}
	return settings.Pricing(base)
}
