package models

// Requests for the page HTTP endpoints.

type SessionRequest struct {
	SID string `query:"sid" json:"sid" validate:"omitempty,uuid4"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
