package dto

import "time"

// ErrorResponse is the JSON body of every non-2xx API response.
//
// Fields:
//   - Message: human readable summary.
//   - ErrorDetails: the underlying error text, omitted when there is none.
//   - Timestamp: when the error was produced (UTC).
type ErrorResponse struct {
	Message      string    `json:"message" example:"no review run available"`
	ErrorDetails string    `json:"error,omitempty" example:"not found"`
	Timestamp    time.Time `json:"timestamp" example:"2024-05-02T09:00:00Z"`
}

// NewErrorResponse builds an ErrorResponse for msg, carrying err's text when non-nil.
func NewErrorResponse(msg string, err error) ErrorResponse {
	e := ErrorResponse{Message: msg, Timestamp: time.Now().UTC()}
	if err != nil {
		e.ErrorDetails = err.Error()
	}
	return e
}

// Error implements error so handlers can pass the response through c.Error.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
