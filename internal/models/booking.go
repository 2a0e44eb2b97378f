package models

import (
	"time"

	"gorm.io/gorm"
)

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CustomerID uint `gorm:"index;not null" json:"customer_id"`
	Customer   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	BarberID uint `gorm:"index:idx_booking_barber_start;not null" json:"barber_id"`
	Barber   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	ServiceName  string  `gorm:"size:200;not null" json:"service_name"`
	ServicePrice float64 `gorm:"not null" json:"service_price"`
	Notes        string  `gorm:"type:text" json:"notes"`

	StartTime       time.Time `gorm:"index:idx_booking_barber_start;not null" json:"appointment_date"`
	DurationMinutes int       `gorm:"default:60;not null" json:"duration_minutes"`
	EndTime         time.Time `gorm:"not null" json:"end_time"`

	Status          string `gorm:"size:20;default:'pending';not null" json:"status"`
	PaymentStatus   string `gorm:"size:20;default:'pending';not null" json:"payment_status"`
	PaymentIntentID string `gorm:"size:255;index" json:"payment_intent_id,omitempty"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// End is derived; EndTime is only a persisted copy for range queries.
func (b *Booking) End() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

func (b *Booking) BeforeSave(tx *gorm.DB) error {
	b.EndTime = b.End()
	return nil
}
