// Package inquiry records contact form submissions for operators.
package inquiry

import "time"

// Status is the relay's verdict on a submission.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Inquiry is one relayed contact submission.
type Inquiry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	Relay     string    `json:"relay"`
	CreatedAt time.Time `json:"created_at"`
}
