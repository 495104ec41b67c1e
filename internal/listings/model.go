// Package listings manages job postings.
package listings

import "time"

// JobRecord is the stored shape of a job posting.
type JobRecord struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	EmploymentType  string     `json:"employmentType"`
	ExperienceLevel string     `json:"experienceLevel"`
	SalaryMin       *int       `json:"salaryMin,omitempty"`
	SalaryMax       *int       `json:"salaryMax,omitempty"`
	Currency        string     `json:"currency"`
	Skills          []string   `json:"skills"`
	CompanyID       string     `json:"companyId"`
	Status          string     `json:"status"`
	ApplicationURL  string     `json:"applicationUrl,omitempty"`
	RemoteFriendly  bool       `json:"remoteFriendly"`
	PostedBy        string     `json:"postedBy"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
}

// Job is a posting with its document identity and timestamps.
type Job struct {
	JobRecord
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Job statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)
