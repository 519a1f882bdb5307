package handlers

import "github.com/vzahanych/weather-page/internal/server/utils"

// SearchRequest submits a location. Units is optional and defaults to the
// currently selected unit system.
type SearchRequest struct {
	Location string `json:"location" validate:"required,location" binding:"required"`
	Units    string `json:"units,omitempty" validate:"omitempty,units"`
}

// UnitsRequest flips the unit toggle.
type UnitsRequest struct {
	Units string `json:"units" validate:"required,units" binding:"required"`
}

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string                  `json:"error" validate:"required,min=1,max=500"`
	Code    string                  `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details string                  `json:"details,omitempty" validate:"omitempty,max=1000"`
	Fields  []utils.ValidationError `json:"fields,omitempty"`
}

// HealthResponse represents health check response with validation
type HealthResponse struct {
	Status    string `json:"status" validate:"required,oneof=ok degraded unavailable"`
	Uptime    string `json:"uptime" validate:"required"`
	Timestamp string `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}
