package models

import "time"

// User is an account of the portal, student or staff.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FullName        string    `gorm:"size:255;not null" json:"full_name"`
	Username        string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email           string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash    string    `gorm:"size:255;not null" json:"-"`
	Role            Role      `gorm:"size:32;not null;index" json:"role"`
	PhoneNumber     string    `gorm:"size:32" json:"phone_number"`
	AcademicYear    string    `gorm:"size:32" json:"academic_year"`
	Country         string    `gorm:"size:100" json:"country"`
	ProfileImageURL string    `gorm:"size:512" json:"profile_image_url"`
	IsBanned        bool      `gorm:"not null;default:false" json:"is_banned"`
	BanReason       *string   `gorm:"type:text" json:"ban_reason"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
