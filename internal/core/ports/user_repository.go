package ports

import (
	"context"

	"github.com/wekeza/investment-platform/internal/core/domain"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Update persists the full user record, including embedded profile.
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the account entirely; used to roll back a registration
	// whose verification mail could not be delivered.
	Delete(ctx context.Context, id int64) error
}
