/**
 * @description
 * Shopper-facing database models.
 * Maps to saved_products and notifications tables.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SavedProduct represents a shopper's saved product; price drops on any listing
// of the product notify the shopper.
type SavedProduct struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saved_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saved_user_product;index" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (SavedProduct) TableName() string {
	return "saved_products"
}

func (s *SavedProduct) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// NotificationType defines types of notifications
type NotificationType string

const (
	NotificationTypePriceDrop    NotificationType = "PRICE_DROP"
	NotificationTypeApproval     NotificationType = "APPROVAL"
	NotificationTypeSplitSavings NotificationType = "SPLIT_SAVINGS"
	NotificationTypeSystem       NotificationType = "SYSTEM"
)

// Notification stores user notifications. Only the read flag ever changes.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"user_id"`
	Type      NotificationType `gorm:"size:32;default:'SYSTEM'" json:"type"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `json:"message"`
	Read      bool             `gorm:"default:false;index:idx_notifications_user_read" json:"read"`
	CreatedAt time.Time        `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}

// SavedProductItem represents a saved product with its cheapest current offer
type SavedProductItem struct {
	SavedProduct
	Name        string           `json:"name"`
	ImageURL    string           `json:"image_url"`
	BestPrice   *decimal.Decimal `json:"best_price,omitempty"`
	BestStoreID *uuid.UUID       `json:"best_store_id,omitempty"`
}
