package models

import "time"

// User represents the sender's profile information
type User struct {
	ID        string          `json:"id"`
	Name      string          `json:"name" validate:"required"`
	Email     string          `json:"email" validate:"required,email"`
	Position  string          `json:"position" validate:"required"`
	Company   string          `json:"company" validate:"required"`
	Portfolio []PortfolioItem `json:"portfolio" validate:"dive"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PortfolioItem is a tech-stack/link pair declared on a user's profile
type PortfolioItem struct {
	Techstack string `json:"techstack" validate:"required"`
	Link      string `json:"link" validate:"required,url|fqdn"`
}

// PortfolioEntry is a portfolio item as stored in the embedding index
type PortfolioEntry struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Techstack string `json:"techstack"`
	Link      string `json:"link"`
}

// JobPosting is a single job extracted from a careers page
type JobPosting struct {
	Role        string   `json:"role" validate:"required"`
	Experience  string   `json:"experience"`
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
}

// Status is a tracker workflow state
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffered   Status = "Offered"
	StatusRejected  Status = "Rejected"
	StatusAccepted  Status = "Accepted"
)

// Statuses lists every workflow state in display order
var Statuses = []Status{
	StatusDraft,
	StatusApplied,
	StatusInterview,
	StatusOffered,
	StatusRejected,
	StatusAccepted,
}

// EmailDraft is a generated outreach email tracked through the application workflow
type EmailDraft struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"user_id"`
	SourceURL string     `json:"source_url"`
	Job       JobPosting `json:"job"`
	Email     string     `json:"email"`
	Status    Status     `json:"status"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
