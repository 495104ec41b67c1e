package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ProblemDetail is the JSON error body returned by every failing endpoint.
type ProblemDetail struct {
	Title   string       `json:"title"`
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Issues  []FieldIssue `json:"issues,omitempty"`
}

// FieldIssue itemizes a single schema-validation failure.
type FieldIssue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends a structured error response.
func Problem(w http.ResponseWriter, status int, title, message string) {
	JSON(w, status, ProblemDetail{Title: title, Status: status, Message: message})
}

// ValidationProblem sends a 422 with per-field issues.
func ValidationProblem(w http.ResponseWriter, issues []FieldIssue) {
	JSON(w, http.StatusUnprocessableEntity, ProblemDetail{
		Title:   "Validation Failed",
		Status:  http.StatusUnprocessableEntity,
		Message: "Invalid payload.",
		Issues:  issues,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// Issues converts validator errors into field-level issues.
func Issues(err error) []FieldIssue {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldIssue{{Field: "body", Rule: "invalid", Message: err.Error()}}
	}
	issues := make([]FieldIssue, 0, len(verrs))
	for _, fieldErr := range verrs {
		issues = append(issues, FieldIssue{
			Field:   fieldErr.Field(),
			Rule:    fieldErr.Tag(),
			Message: fieldErr.Error(),
		})
	}
	return issues
}
