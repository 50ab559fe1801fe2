package stockdetail

import (
	"context"
	"errors"
	"time"

	"folio-backend/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrValidation     = errors.New("invalid input")
	ErrRecordNotFound = errors.New("stock detail record not found")
)

// Service stores OHLCV candle rows per ticker.
type Service struct {
	DB *gorm.DB
}

// Page is a paginated slice of rows.
type Page struct {
	Rows  []domain.StockDetail `json:"rows"`
	Count int64                `json:"count"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

func (s *Service) Create(ctx context.Context, detail *domain.StockDetail) error {
	if detail.StocksName == "" {
		return ErrValidation
	}
	if detail.TimeStamp.IsZero() {
		return ErrValidation
	}
	return s.DB.WithContext(ctx).Create(detail).Error
}

func (s *Service) Get(ctx context.Context, recordID uint) (*domain.StockDetail, error) {
	var detail domain.StockDetail
	err := s.DB.WithContext(ctx).First(&detail, recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByName returns rows for a ticker, newest first, paginated.
func (s *Service) ListByName(ctx context.Context, stocksName string, page, limit int) (*Page, error) {
	if stocksName == "" {
		return nil, ErrValidation
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}

	q := s.DB.WithContext(ctx).Model(&domain.StockDetail{}).Where("stocks_name = ?", stocksName)
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}

	var rows []domain.StockDetail
	err := q.Order("time_stamp DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return &Page{Rows: rows, Count: count, Page: page, Limit: limit}, nil
}

// ListByRange returns rows for a ticker inside [start, end], oldest first.
func (s *Service) ListByRange(ctx context.Context, stocksName string, start, end time.Time) ([]domain.StockDetail, error) {
	if stocksName == "" || start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, ErrValidation
	}
	var rows []domain.StockDetail
	err := s.DB.WithContext(ctx).
		Where("stocks_name = ? AND time_stamp BETWEEN ? AND ?", stocksName, start, end).
		Order("time_stamp ASC").
		Find(&rows).Error
	return rows, err
}

func (s *Service) Update(ctx context.Context, recordID uint, updates map[string]interface{}) (*domain.StockDetail, error) {
	if len(updates) == 0 {
		return nil, ErrValidation
	}
	var detail domain.StockDetail
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&detail, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}
		if err := tx.Model(&detail).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&detail, recordID).Error
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *Service) Delete(ctx context.Context, recordID uint) error {
	res := s.DB.WithContext(ctx).Delete(&domain.StockDetail{}, recordID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
