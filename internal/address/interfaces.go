package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
)

// Repository defines persistence operations for the address registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, addr *models.Address) (*models.Address, error)
	ClearDefault(ctx context.Context, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
	FindDefault(ctx context.Context, userID uuid.UUID) (*models.Address, error)
	FindLatest(ctx context.Context, userID uuid.UUID) (*models.Address, error)
}
