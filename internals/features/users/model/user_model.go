package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	UserEmail    string    `gorm:"column:user_email;type:varchar(255);not null;unique" json:"user_email"`
	UserFullName string    `gorm:"column:user_full_name;type:varchar(255)" json:"user_full_name"`
	UserPassword string    `gorm:"column:user_password;type:varchar(255);not null" json:"-"`
	UserIsActive bool      `gorm:"column:user_is_active" json:"user_is_active"`

	Addresses []UserAddress `gorm:"foreignKey:AddressUserID;references:UserID" json:"addresses,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// UserAddress feeds the VAT user context; country codes are ISO 3166-1
// alpha-2.
type UserAddress struct {
	AddressID        uuid.UUID `gorm:"column:address_id;type:uuid;primaryKey" json:"address_id"`
	AddressUserID    uuid.UUID `gorm:"column:address_user_id;type:uuid;not null;index" json:"address_user_id"`
	AddressLine1     string    `gorm:"column:address_line1;type:varchar(255)" json:"address_line1"`
	AddressLine2     string    `gorm:"column:address_line2;type:varchar(255)" json:"address_line2"`
	AddressCity      string    `gorm:"column:address_city;type:varchar(100)" json:"address_city"`
	AddressPostcode  string    `gorm:"column:address_postcode;type:varchar(20)" json:"address_postcode"`
	AddressCountry   string    `gorm:"column:address_country;type:varchar(2)" json:"address_country"`
	AddressIsDefault bool      `gorm:"column:address_is_default;default:false" json:"address_is_default"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserAddress) TableName() string { return "user_addresses" }

func (a *UserAddress) BeforeCreate(tx *gorm.DB) error {
	if a.AddressID == uuid.Nil {
		a.AddressID = uuid.New()
	}
	return nil
}
