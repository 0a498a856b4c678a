package repository

import (
	"context"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepository interface {
	// Add is idempotent: re-adding a saved product is a no-op success.
	Add(ctx context.Context, userID, productID uint) error
	Remove(ctx context.Context, userID, productID uint) error
	ListByUser(ctx context.Context, userID uint) ([]*dto.WishlistItem, error)
	Count(ctx context.Context, userID uint) (int64, error)
	// UserIDsWithProduct targets the discount fan-out.
	UserIDsWithProduct(ctx context.Context, productID uint) ([]uint, error)
}

type wishlistRepoImpl struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepoImpl{
		db: db,
	}
}

func (r *wishlistRepoImpl) Add(ctx context.Context, userID, productID uint) error {
	entry := model.Wishlist{UserID: userID, ProductID: productID}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
}

func (r *wishlistRepoImpl) Remove(ctx context.Context, userID, productID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Wishlist{}).Error
}

func (r *wishlistRepoImpl) ListByUser(ctx context.Context, userID uint) ([]*dto.WishlistItem, error) {
	var items []*dto.WishlistItem
	err := r.db.WithContext(ctx).
		Table("wishlists").
		Select(`wishlists.id AS wishlist_id, products.id AS product_id, products.name,
			products.price, products.image_url, wishlists.created_at AS added_at`).
		Joins("JOIN products ON products.id = wishlists.product_id").
		Where("wishlists.user_id = ?", userID).
		Scan(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *wishlistRepoImpl) Count(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Wishlist{}).
		Where("user_id = ?", userID).
		Count(&count).Error

	return count, err
}

func (r *wishlistRepoImpl) UserIDsWithProduct(ctx context.Context, productID uint) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).Model(&model.Wishlist{}).
		Where("product_id = ?", productID).
		Pluck("user_id", &userIDs).Error

	if err != nil {
		return nil, err
	}

	return userIDs, nil
}
