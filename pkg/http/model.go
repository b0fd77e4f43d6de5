package http

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_LTE"`
	Field   string                 `json:"field,omitempty" example:"days"`
	Message string                 `json:"message,omitempty" example:"days must be less than or equal to 365"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// HealthResponse is returned by liveness and readiness probes.
type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}
