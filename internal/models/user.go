package models

import "time"

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	FirstName    string `gorm:"size:100;not null" json:"first_name"`
	LastName     string `gorm:"size:100;not null" json:"last_name"`
	Phone        string `gorm:"size:20" json:"phone"`

	IsActive   bool `gorm:"default:true;not null" json:"is_active"`
	IsBarber   bool `gorm:"default:false;not null" json:"is_barber"`
	IsVerified bool `gorm:"default:false;not null" json:"is_verified"`

	Bio             string   `gorm:"type:text" json:"bio"`
	ExperienceYears *int     `json:"experience_years"`
	HourlyRate      *float64 `json:"hourly_rate"`
	Address         string   `gorm:"size:500" json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
