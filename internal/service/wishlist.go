package service

import (
	"context"
	"errors"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/repository"

	"gorm.io/gorm"
)

type WishlistService interface {
	Get(ctx context.Context, userID uint) ([]*dto.WishlistItem, error)
	Add(ctx context.Context, userID, productID uint) error
	Remove(ctx context.Context, userID, productID uint) error
	Count(ctx context.Context, userID uint) (int64, error)
}

type wishlistServiceImpl struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
) WishlistService {
	return &wishlistServiceImpl{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *wishlistServiceImpl) Get(ctx context.Context, userID uint) ([]*dto.WishlistItem, error) {
	return s.wishlistRepo.ListByUser(ctx, userID)
}

// Add saves the product for later; adding a product twice is treated as
// success, not a conflict.
func (s *wishlistServiceImpl) Add(ctx context.Context, userID, productID uint) error {
	if productID == 0 {
		return apperr.New(apperr.Validation, "Product ID is required")
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Product not found")
		}
		return err
	}

	return s.wishlistRepo.Add(ctx, userID, productID)
}

func (s *wishlistServiceImpl) Remove(ctx context.Context, userID, productID uint) error {
	return s.wishlistRepo.Remove(ctx, userID, productID)
}

func (s *wishlistServiceImpl) Count(ctx context.Context, userID uint) (int64, error) {
	return s.wishlistRepo.Count(ctx, userID)
}
