// Package users manages console user accounts and their role assignment.
package users

import "time"

// UserRecord is the stored shape of a user document. Permissions are a
// denormalized copy of the role's resolved effective permissions at last
// sync.
type UserRecord struct {
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        string     `json:"role"`
	CompanyID   string     `json:"companyId,omitempty"`
	Permissions []string   `json:"permissions"`
	Disabled    bool       `json:"disabled"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// AppUser is a user with document identity and timestamps.
type AppUser struct {
	UserRecord
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CompanyOption feeds the company picker on the users screen.
type CompanyOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InviteForm is the validated invitation payload.
type InviteForm struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required,min=2"`
	Role        string `json:"role" validate:"required"`
	CompanyID   string `json:"companyId" validate:"omitempty"`
}

// UpdateForm is the validated partial-update payload.
type UpdateForm struct {
	DisplayName *string `json:"displayName" validate:"omitempty,min=2"`
	Role        *string `json:"role" validate:"omitempty"`
	CompanyID   *string `json:"companyId"`
	Disabled    *bool   `json:"disabled"`
}
