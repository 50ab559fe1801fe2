package user

import (
	"context"
	"errors"

	"folio-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("invalid input")
	ErrUserNotFound = errors.New("user not found")
	ErrUsernameUsed = errors.New("username already exists")
)

// Service manages user funds records. The portfolio engine trades against
// one implicit user; this module is how that record (and any others) is
// provisioned and repaired.
type Service struct {
	DB *gorm.DB
}

// UpdateFundsInput carries the funds overwrite fields; nil means keep.
type UpdateFundsInput struct {
	TotalFunds     *decimal.Decimal
	AvailableFunds *decimal.Decimal
	InvestedFunds  *decimal.Decimal
}

func (s *Service) Create(ctx context.Context, username string, funds decimal.Decimal) (*domain.UserFunds, error) {
	if username == "" {
		return nil, ErrValidation
	}
	if funds.IsNegative() {
		return nil, ErrValidation
	}

	record := &domain.UserFunds{
		Username:       username,
		TotalFunds:     funds,
		AvailableFunds: funds,
		InvestedFunds:  decimal.Zero,
	}
	// The uniqueIndex on username is the source of truth: a duplicate,
	// sequential or concurrent, surfaces as gorm.ErrDuplicatedKey.
	if err := s.DB.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameUsed
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*domain.UserFunds, error) {
	var record domain.UserFunds
	err := s.DB.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) List(ctx context.Context) ([]domain.UserFunds, error) {
	var records []domain.UserFunds
	err := s.DB.WithContext(ctx).Order("id ASC").Find(&records).Error
	return records, err
}

// UpdateFunds overwrites funds fields. Administrative: it does not touch
// holdings. The version column is bumped so any in-flight trade against
// the old snapshot loses its compare-and-swap.
func (s *Service) UpdateFunds(ctx context.Context, id uint, input UpdateFundsInput) (*domain.UserFunds, error) {
	updates := map[string]interface{}{}
	if input.TotalFunds != nil {
		updates["total_funds"] = *input.TotalFunds
	}
	if input.AvailableFunds != nil {
		if input.AvailableFunds.IsNegative() {
			return nil, ErrValidation
		}
		updates["available_funds"] = *input.AvailableFunds
	}
	if input.InvestedFunds != nil {
		updates["invested_funds"] = *input.InvestedFunds
	}
	if len(updates) == 0 {
		return nil, ErrValidation
	}
	updates["version"] = gorm.Expr("version + 1")

	var record domain.UserFunds
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := tx.Model(&record).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&record, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&domain.UserFunds{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
