package dto

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Detail    string `json:"detail,omitempty"`
	ProductID *int64 `json:"product_id,omitempty"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service and database state.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
