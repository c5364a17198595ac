package services

import (
	"context"
	"fmt"

	"github.com/sahilchouksey/coursecheckout-api/model"
	"gorm.io/gorm"
)

// CatalogStore reads purchasable course data
type CatalogStore interface {
	// GetCoursesByIDs returns the courses with their instructors, in the order
	// of ids. Missing ids are simply absent from the result.
	GetCoursesByIDs(ctx context.Context, ids []uint) ([]model.Course, error)
}

// CartStore reads and clears a user's cart
type CartStore interface {
	// GetCart returns the user's cart with its items. A user without a cart
	// gets an empty, unsaved cart.
	GetCart(ctx context.Context, userID uint) (*model.Cart, error)
	// ClearCart removes all items of a cart using tx
	ClearCart(ctx context.Context, tx *gorm.DB, cartID uint) error
}

// GormCatalogStore implements CatalogStore on the courses table
type GormCatalogStore struct {
	db *gorm.DB
}

// NewGormCatalogStore creates a catalog store
func NewGormCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{db: db}
}

// GetCoursesByIDs implements CatalogStore
func (s *GormCatalogStore) GetCoursesByIDs(ctx context.Context, ids []uint) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []model.Course
	err := s.db.WithContext(ctx).
		Preload("Instructors", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id IN ?", ids).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}

	byID := make(map[uint]model.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	courses := make([]model.Course, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			courses = append(courses, c)
		}
	}
	return courses, nil
}

// dedupeIDs drops zero and repeated ids, keeping first-seen order
func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
