package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property types offered by the listing form. The type filter does not restrict values to this list.
const (
	PostTypeApartment  = "apartment"
	PostTypeHouse      = "house"
	PostTypeLand       = "land"
	PostTypeCommercial = "commercial"
)

// PostTypes lists the known property types in display order.
var PostTypes = []string{PostTypeApartment, PostTypeHouse, PostTypeLand, PostTypeCommercial}

// Post a real-estate listing
type Post struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Reference   string          `json:"reference" gorm:"size:26;not null;uniqueIndex"`
	AuthorID    uint            `json:"author_id" gorm:"not null;index"`
	Title       string          `json:"title" gorm:"size:200;not null"`
	Description string          `json:"description" gorm:"type:text"`
	City        string          `json:"city" gorm:"size:120;not null;index"`
	Sector      string          `json:"sector" gorm:"size:120;index"`
	Type        string          `json:"type" gorm:"size:40;not null;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;index"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CoverURL    string          `json:"cover_url" gorm:"-"`

	Author *User       `json:"author" gorm:"foreignKey:AuthorID"`
	Images []PostImage `json:"images" gorm:"foreignKey:PostID"`
}

func (Post) TableName() string {
	return "posts"
}

// MaxPrice is the largest value the decimal(12,2) price column holds.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// maxPriceExponent bounds the exponent a price filter may carry.
const maxPriceExponent = 12

// ValidPrice reports whether d fits the price column and is not negative.
// The exponent is checked first: comparing a value such as 1e200000000 would rescale it.
func ValidPrice(d decimal.Decimal) bool {
	if exp := d.Exponent(); exp > maxPriceExponent || exp < -maxPriceExponent {
		return false
	}
	return !d.IsNegative() && d.Cmp(MaxPrice) <= 0
}

// PostImage an image attached to a post. Path is the object key in storage.
type PostImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	Path      string    `json:"path" gorm:"size:255;not null"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	URL       string    `json:"url" gorm:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostImage) TableName() string {
	return "post_images"
}

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &PostImage{}}
}
