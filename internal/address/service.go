package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/petalworks-backend/pkg/db/models"
	pkgerrors "github.com/petalworks/petalworks-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput carries the fields accepted when registering an address.
type CreateInput struct {
	Label     string
	Recipient string
	Phone     *string
	Street    string
	Landmark  *string
	City      string
	State     string
	Pincode   string
	IsDefault bool
}

// Service defines the address registry operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	DefaultOrLatest(ctx context.Context, userID uuid.UUID) (*models.Address, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an address service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Create registers a new address. When the new address is flagged default,
// clearing the previous default and the insert run in one transaction so a
// crash can never leave two defaults behind.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	addr := &models.Address{
		UserID:    userID,
		Label:     strings.TrimSpace(input.Label),
		Recipient: strings.TrimSpace(input.Recipient),
		Phone:     input.Phone,
		Street:    strings.TrimSpace(input.Street),
		Landmark:  input.Landmark,
		City:      strings.TrimSpace(input.City),
		State:     strings.TrimSpace(input.State),
		Pincode:   strings.TrimSpace(input.Pincode),
		IsDefault: input.IsDefault,
	}
	if addr.Recipient == "" {
		addr.Recipient = addr.Label
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return fmt.Errorf("clearing previous default: %w", err)
			}
		}
		if _, err := repo.Create(ctx, addr); err != nil {
			return fmt.Errorf("inserting address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// DefaultOrLatest returns the user's default address, falling back to the
// most recently created one. Returns nil when the user has no addresses, so
// checkout can surface its own not-found error.
func (s *service) DefaultOrLatest(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	addr, err := s.repo.FindDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	if addr != nil {
		return addr, nil
	}
	return s.repo.FindLatest(ctx, userID)
}

func validateCreate(input CreateInput) error {
	missing := []string{}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"label", input.Label},
		{"street", input.Street},
		{"city", input.City},
		{"state", input.State},
		{"pincode", input.Pincode},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required address fields").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}
