package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
)

// Repository defines read operations over the product catalog. Checkout
// trusts these rows for pricing, never the client-submitted figures.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	FindGiftWrap(ctx context.Context, id uuid.UUID) (*models.GiftWrap, error)
	FindSellersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Seller, error)
	FindSellerByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
