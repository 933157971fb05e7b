package dto

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// UserListRequest defines filters for the admin user listing.
type UserListRequest struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

// UserUpdateRequest captures admin edits. Nil fields are left unchanged.
type UserUpdateRequest struct {
	FullName     *string `json:"full_name" validate:"omitempty,min=2,max=255"`
	Username     *string `json:"username" validate:"omitempty,min=3,max=64"`
	Email        *string `json:"email" validate:"omitempty,email,max=255"`
	Role         *string `json:"role" validate:"omitempty,oneof=student moderator manager editor admin super_admin"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,max=32"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,max=32"`
	Country      *string `json:"country" validate:"omitempty,max=100"`
	IsBanned     *bool   `json:"is_banned"`
	BanReason    *string `json:"ban_reason" validate:"omitempty,max=512"`
}

// UserResponse serialises an account without secrets.
type UserResponse struct {
	ID              uint      `json:"id"`
	FullName        string    `json:"full_name"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	AcademicYear    string    `json:"academic_year,omitempty"`
	Country         string    `json:"country,omitempty"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	IsBanned        bool      `json:"is_banned"`
	BanReason       *string   `json:"ban_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewUserResponse converts a user model.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		FullName:        user.FullName,
		Username:        user.Username,
		Email:           user.Email,
		Role:            user.Role.String(),
		PhoneNumber:     user.PhoneNumber,
		AcademicYear:    user.AcademicYear,
		Country:         user.Country,
		ProfileImageURL: user.ProfileImageURL,
		IsBanned:        user.IsBanned,
		BanReason:       user.BanReason,
		CreatedAt:       user.CreatedAt,
	}
}
