package model

import "time"

// Cart holds a user's pending course selections
type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

// CourseIDs returns the course ids in the cart, in insertion order
func (c *Cart) CourseIDs() []uint {
	ids := make([]uint, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.CourseID)
	}
	return ids
}

// CartItem is a single course in a cart
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_course" json:"cart_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_cart_course" json:"course_id"`

	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
