package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/internal/repo"
	"github.com/petalworks/petalworks-backend/pkg/db/models"
	"github.com/petalworks/petalworks-backend/pkg/enums"
	pkgerrors "github.com/petalworks/petalworks-backend/pkg/errors"
)

type repository struct {
	repo.Base
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.DB(ctx).
		Where("id IN ?", ids).
		Where("is_active = ?", true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindGiftWrap(ctx context.Context, id uuid.UUID) (*models.GiftWrap, error) {
	var wrap models.GiftWrap
	err := r.DB(ctx).
		Where("id = ?", id).
		Where("is_active = ?", true).
		First(&wrap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift wrap not found")
		}
		return nil, err
	}
	return &wrap, nil
}

func (r *repository) FindSellersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Seller, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var sellers []models.Seller
	err := r.DB(ctx).
		Where("id IN ?", ids).
		Find(&sellers).Error
	if err != nil {
		return nil, err
	}
	return sellers, nil
}

func (r *repository) FindSellerByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	err := r.DB(ctx).Where("id = ?", id).First(&seller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, err
	}
	return &seller, nil
}

func (r *repository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	err := r.DB(ctx).
		Where("role = ?", enums.UserRoleAdmin).
		Where("is_active = ?", true).
		Find(&admins).Error
	if err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *repository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}
