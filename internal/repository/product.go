package repository

import (
	"context"
	"urban-threads-api/internal/model"

	"gorm.io/gorm"
)

type ProductRepository interface {
	FindByID(ctx context.Context, productID uint) (*model.Product, error)
	List(ctx context.Context) ([]*model.Product, error)
	// DecrementStock conditionally takes qty units off the shelf; it reports
	// false when the product is missing or has fewer than qty units left.
	DecrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) (bool, error)
	IncrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) error
	SetStock(ctx context.Context, productID uint, stock int) (int64, error)
	SetDiscount(ctx context.Context, productID uint, listPrice float64, rate int, discountedPrice float64) error
	ClearDiscount(ctx context.Context, productID uint) error
	// SetPrice overrides the sale price and resets any active discount state,
	// since a manual price change invalidates the previous discount math.
	SetPrice(ctx context.Context, productID uint, price float64) (int64, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) List(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Order("id asc").
		Find(&products).Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *productRepoImpl) IncrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) error {
	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *productRepoImpl) SetStock(ctx context.Context, productID uint, stock int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", stock)

	return result.RowsAffected, result.Error
}

func (r *productRepoImpl) SetDiscount(ctx context.Context, productID uint, listPrice float64, rate int, discountedPrice float64) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"list_price":       listPrice,
			"discount_rate":    rate,
			"discounted_price": discountedPrice,
			"discount_active":  true,
		}).Error
}

func (r *productRepoImpl) ClearDiscount(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"list_price":       nil,
			"discount_rate":    0,
			"discounted_price": nil,
			"discount_active":  false,
		}).Error
}

func (r *productRepoImpl) SetPrice(ctx context.Context, productID uint, price float64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"price":            price,
			"list_price":       nil,
			"discount_rate":    0,
			"discounted_price": nil,
			"discount_active":  false,
		})

	return result.RowsAffected, result.Error
}
