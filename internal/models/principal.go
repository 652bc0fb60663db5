package models

// Principal is the authenticated user as reported by the auth service.
// Only ID is guaranteed to be present.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
