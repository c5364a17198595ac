package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/coursecheckout-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartService manages shopping carts. It implements CartStore.
type CartService struct {
	db          *gorm.DB
	catalog     CatalogStore
	enrollments *EnrollmentService
}

// NewCartService creates a new cart service
func NewCartService(db *gorm.DB, catalog CatalogStore, enrollments *EnrollmentService) *CartService {
	return &CartService{db: db, catalog: catalog, enrollments: enrollments}
}

// GetCart implements CartStore
func (s *CartService) GetCart(ctx context.Context, userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Course").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

// ClearCart implements CartStore
func (s *CartService) ClearCart(ctx context.Context, tx *gorm.DB, cartID uint) error {
	if err := tx.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// AddItem puts a purchasable course in the user's cart. Adding a course twice is a no-op.
func (s *CartService) AddItem(ctx context.Context, userID, courseID uint) (*model.Cart, error) {
	courses, err := s.catalog.GetCoursesByIDs(ctx, []uint{courseID})
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 || !courses[0].Purchasable() {
		return nil, fmt.Errorf("%w: %d", ErrCourseUnavailable, courseID)
	}

	owned, err := s.enrollments.ActiveCourseIDs(ctx, s.db, userID, []uint{courseID})
	if err != nil {
		return nil, err
	}
	if len(owned) > 0 {
		return nil, fmt.Errorf("%w in course %d", ErrAlreadyEnrolled, courseID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart := model.Cart{UserID: userID}
		if err := tx.Where(model.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
			return fmt.Errorf("failed to get cart: %w", err)
		}
		item := model.CartItem{CartID: cart.ID, CourseID: courseID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error; err != nil {
			return fmt.Errorf("failed to add cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem takes a course out of the user's cart. Removing an absent course is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, courseID uint) (*model.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.ID == 0 {
		return cart, nil
	}

	err = s.db.WithContext(ctx).
		Where("cart_id = ? AND course_id = ?", cart.ID, courseID).
		Delete(&model.CartItem{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}
