package ports

import (
	"context"

	"github.com/wekeza/investment-platform/internal/core/domain"
)

// SectorRepository defines the interface for sector reference data.
type SectorRepository interface {
	List(ctx context.Context) ([]domain.Sector, error)
	// Seed inserts the given sectors when the catalogue is empty; a no-op
	// otherwise.
	Seed(ctx context.Context, sectors []domain.Sector) error
}
