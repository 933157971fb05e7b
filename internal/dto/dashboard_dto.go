package dto

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/repository"
)

// DashboardUser identifies the viewer of a dashboard.
type DashboardUser struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// DashboardStat is a single labelled counter.
type DashboardStat struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Value int64  `json:"value"`
}

// DashboardResponse holds the role-specific counters.
type DashboardResponse struct {
	User        DashboardUser   `json:"user"`
	Stats       []DashboardStat `json:"stats"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// FeedItem is one entry of the home feed.
type FeedItem struct {
	Type      string    `json:"type"`
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Link      string    `json:"link,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedResponse is the merged home feed, newest first.
type FeedResponse struct {
	Items []FeedItem `json:"items"`
}

// ProfileResponse is the caller's account plus recent activity.
type ProfileResponse struct {
	User          UserResponse                       `json:"user"`
	Registrations []repository.UserEventActivity     `json:"registrations"`
	Complaints    []repository.UserComplaintActivity `json:"complaints"`
	Surveys       []repository.UserSurveyActivity    `json:"surveys"`
}

// PasswordChangeRequest updates the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}
