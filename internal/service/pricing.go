package service

import (
	"context"
	"errors"
	"math"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxDiscountRate = 90

type PricingService interface {
	ApplyDiscount(ctx context.Context, productID uint, discountRate float64) (*dto.DiscountResult, error)
	UpdatePrice(ctx context.Context, productID uint, price float64) (*model.Product, error)
}

type pricingServiceImpl struct {
	productRepo  repository.ProductRepository
	wishlistRepo repository.WishlistRepository
	notifier     NotificationService
	log          *logrus.Logger
}

func NewPricingService(
	productRepo repository.ProductRepository,
	wishlistRepo repository.WishlistRepository,
	notifier NotificationService,
	log *logrus.Logger,
) PricingService {
	return &pricingServiceImpl{
		productRepo:  productRepo,
		wishlistRepo: wishlistRepo,
		notifier:     notifier,
		log:          log,
	}
}

// ApplyDiscount sets or removes the product's discount and fans out a
// notification batch to every user holding the product in a wishlist.
//
// The discount base is the price captured into list_price the first time a
// discount is applied; reapplying with a different rate reuses that same
// base, so discounts never compound.
func (s *pricingServiceImpl) ApplyDiscount(ctx context.Context, productID uint, discountRate float64) (*dto.DiscountResult, error) {
	if math.IsNaN(discountRate) || math.IsInf(discountRate, 0) || discountRate < 0 || discountRate > maxDiscountRate {
		return nil, apperr.New(apperr.Validation, "Invalid discountRate (0-90)")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Product not found")
		}
		return nil, err
	}

	if discountRate == 0 {
		if err := s.productRepo.ClearDiscount(ctx, productID); err != nil {
			return nil, err
		}

		return &dto.DiscountResult{
			ProductID:   productID,
			ProductName: product.Name,
		}, nil
	}

	base := product.Price
	if product.ListPrice != nil {
		base = *product.ListPrice
	}

	rate := int(math.Round(discountRate))
	discountedPrice := decimal.NewFromFloat(base).
		Mul(decimal.NewFromInt(int64(100 - rate))).
		Div(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()

	if err := s.productRepo.SetDiscount(ctx, productID, base, rate, discountedPrice); err != nil {
		return nil, err
	}

	userIDs, err := s.wishlistRepo.UserIDsWithProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	fanout, err := s.notifier.NotifyDiscount(ctx, DiscountNotice{
		UserIDs:      userIDs,
		ProductID:    productID,
		ProductName:  product.Name,
		DiscountRate: rate,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"product_id":       productID,
		"discount_rate":    rate,
		"discounted_price": discountedPrice,
		"notified":         fanout.Inserted,
	}).Info("discount applied")

	return &dto.DiscountResult{
		ProductID:       productID,
		ProductName:     product.Name,
		DiscountRate:    rate,
		DiscountedPrice: discountedPrice,
		NotifiedUsers:   fanout.Inserted,
		EmailedUsers:    fanout.Emailed,
	}, nil
}

// UpdatePrice is the sales-manager override. It resets any active discount
// state because the previous discount math no longer applies.
func (s *pricingServiceImpl) UpdatePrice(ctx context.Context, productID uint, price float64) (*model.Product, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return nil, apperr.New(apperr.Validation, "Invalid price")
	}

	rows, err := s.productRepo.SetPrice(ctx, productID, price)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperr.New(apperr.NotFound, "Product not found")
	}

	return s.productRepo.FindByID(ctx, productID)
}
