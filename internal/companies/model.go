// Package companies manages employer profiles.
package companies

import "time"

// CompanyRecord is the stored shape of a company.
type CompanyRecord struct {
	Name        string `json:"name"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Status      string `json:"status"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

// Company is a record with document identity and timestamps.
type Company struct {
	CompanyRecord
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CompanyForm is the validated creation/update payload.
type CompanyForm struct {
	Name        string `json:"name" validate:"required,min=2"`
	Website     string `json:"website" validate:"omitempty,url"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Location    string `json:"location" validate:"omitempty,max=200"`
	Industry    string `json:"industry" validate:"omitempty,max=100"`
	Status      string `json:"status" validate:"required,oneof=active inactive"`
	LogoURL     string `json:"logoUrl" validate:"omitempty,url"`
}

func (f CompanyForm) record() CompanyRecord {
	return CompanyRecord{
		Name:        f.Name,
		Website:     f.Website,
		Description: f.Description,
		Location:    f.Location,
		Industry:    f.Industry,
		Status:      f.Status,
		LogoURL:     f.LogoURL,
	}
}
