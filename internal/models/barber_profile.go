package models

import "time"

type ServiceOffering struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

// DayHours uses "HH:MM" in the booking reference timezone.
type DayHours struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Closed bool   `json:"closed"`
}

type BarberProfile struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	ShopName     string              `gorm:"size:200" json:"shop_name"`
	Specialties  []string            `gorm:"type:jsonb;serializer:json" json:"specialties"`
	Services     []ServiceOffering   `gorm:"type:jsonb;serializer:json" json:"services"`
	WorkingHours map[string]DayHours `gorm:"type:jsonb;serializer:json" json:"working_hours"`

	Rating       float64 `gorm:"default:0;not null" json:"rating"`
	TotalReviews int     `gorm:"default:0;not null" json:"total_reviews"`
	IsAvailable  bool    `gorm:"default:true;not null" json:"is_available"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
