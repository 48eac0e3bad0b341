package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PropertyStatusActive is the status assigned to new listings.
const PropertyStatusActive = "active"

// StringList is an ordered list of strings persisted as a JSON text column.
type StringList []string

// Value implements driver.Valuer. A nil list is stored as "[]".
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("StringList: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringList: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Property is a real-estate listing.
type Property struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Title         string       `gorm:"not null" json:"title"`
	Description   string       `gorm:"type:text;not null" json:"description"`
	PropertyType  string       `gorm:"not null;index" json:"propertyType"`
	DealType      string       `gorm:"not null;index" json:"dealType"`
	Price         *float64     `json:"price"`
	RentPrice     *float64     `json:"rentPrice"`
	DepositPrice  *float64     `json:"depositPrice"`
	Area          float64      `gorm:"not null" json:"area"`
	RoomCount     *int         `json:"roomCount"`
	BathroomCount *int         `json:"bathroomCount"`
	Floor         *int         `json:"floor"`
	TotalFloors   *int         `json:"totalFloors"`
	YearBuilt     *int         `json:"yearBuilt"`
	Parking       bool         `gorm:"not null;default:false" json:"parking"`
	Elevator      bool         `gorm:"not null;default:false" json:"elevator"`
	Storage       bool         `gorm:"not null;default:false" json:"storage"`
	Furnished     bool         `gorm:"not null;default:false" json:"furnished"`
	Status        string       `gorm:"not null;default:'active';index" json:"status"`
	Location      string       `gorm:"not null" json:"location"`
	Images        StringList   `gorm:"type:text;not null" json:"images"`
	OwnerID       uint         `gorm:"not null;index" json:"ownerId"`
	Owner         *UserSummary `gorm:"-" json:"owner,omitempty"`
	CreatedAt     time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// PropertyListItem is the admin dashboard row for a property.
type PropertyListItem struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Price     *float64  `json:"price"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}
