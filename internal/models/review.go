package models

import "time"

type Review struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BarberProfileID uint `gorm:"uniqueIndex:idx_review_barber_customer;not null" json:"barber_id"`
	CustomerID      uint `gorm:"uniqueIndex:idx_review_barber_customer;not null" json:"customer_id"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
