/**
 * @description
 * Catalog database models.
 * Maps to the 'stores', 'products' and 'store_listings' tables in PostgreSQL.
 *
 * Products and stores are managed by vendor/admin tooling; this service only
 * reads them and updates listing prices.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 * - github.com/shopspring/decimal
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store is a vendor branch shoppers can compare
type Store struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	VendorID  uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (Store) TableName() string {
	return "stores"
}

func (s *Store) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// Product is the canonical catalog entry every store listing points at
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Category  string    `gorm:"size:64;index" json:"category"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// StoreListing is one store's offer of a product. A zero price is a valid offer;
// Available=false is the only way to mark it unavailable.
type StoreListing struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	StoreID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_store_listing_store_product" json:"store_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_store_listing_store_product" json:"product_id"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_store_listing_price,price >= 0" json:"price"`
	Available bool            `gorm:"default:true" json:"available"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (StoreListing) TableName() string {
	return "store_listings"
}

func (l *StoreListing) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
