package repository

import (
	"context"
	"urban-threads-api/internal/model"

	"gorm.io/gorm"
)

// CartLine is one cart item joined with the product's current sale price.
type CartLine struct {
	ProductID uint
	Quantity  int
	Price     float64
}

type CartRepository interface {
	FindByUser(ctx context.Context, userID uint) (*model.Cart, error)
	Lines(ctx context.Context, cartID uint) ([]CartLine, error)
	ClearItems(ctx context.Context, tx *gorm.DB, cartID uint) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) FindByUser(ctx context.Context, userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&cart).Error

	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepoImpl) Lines(ctx context.Context, cartID uint) ([]CartLine, error) {
	var lines []CartLine
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.product_id, cart_items.quantity, products.price").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Scan(&lines).Error

	if err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *cartRepoImpl) ClearItems(ctx context.Context, tx *gorm.DB, cartID uint) error {
	return tx.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}
