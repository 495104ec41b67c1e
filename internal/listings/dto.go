package listings

import (
	"fmt"

	"github.com/workflicks/backoffice/internal/platform/httpx"
)

// JobForm is the validated creation/update payload.
type JobForm struct {
	Title           string   `json:"title" validate:"required,min=3"`
	Description     string   `json:"description" validate:"required,min=10"`
	Location        string   `json:"location" validate:"required"`
	EmploymentType  string   `json:"employmentType" validate:"required,oneof=full-time part-time contract internship"`
	ExperienceLevel string   `json:"experienceLevel" validate:"required,oneof=entry mid senior lead"`
	SalaryMin       *int     `json:"salaryMin" validate:"omitempty,gte=0"`
	SalaryMax       *int     `json:"salaryMax" validate:"omitempty,gte=0"`
	Currency        string   `json:"currency" validate:"required,len=3"`
	Skills          []string `json:"skills" validate:"required,min=1,dive,min=1"`
	CompanyID       string   `json:"companyId" validate:"required"`
	Status          string   `json:"status" validate:"required,oneof=draft published archived"`
	ApplicationURL  string   `json:"applicationUrl" validate:"omitempty,url"`
	RemoteFriendly  bool     `json:"remoteFriendly"`
}

// checkSalaryRange rejects an inverted salary band. The struct tags cannot
// express the cross-field rule, so it runs in the service after tag
// validation.
func (f JobForm) checkSalaryRange() error {
	if f.SalaryMin != nil && f.SalaryMax != nil && *f.SalaryMin > *f.SalaryMax {
		return fmt.Errorf("listings: salaryMin above salaryMax: %w", httpx.ErrValidation)
	}
	return nil
}

func (f JobForm) record() JobRecord {
	return JobRecord{
		Title:           f.Title,
		Description:     f.Description,
		Location:        f.Location,
		EmploymentType:  f.EmploymentType,
		ExperienceLevel: f.ExperienceLevel,
		SalaryMin:       f.SalaryMin,
		SalaryMax:       f.SalaryMax,
		Currency:        f.Currency,
		Skills:          f.Skills,
		CompanyID:       f.CompanyID,
		Status:          f.Status,
		ApplicationURL:  f.ApplicationURL,
		RemoteFriendly:  f.RemoteFriendly,
	}
}
