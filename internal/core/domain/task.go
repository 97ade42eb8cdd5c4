package domain

import "time"

// EmailTask is a background notification job requested through the API.
type EmailTask struct {
	ID          string
	Recipient   string
	Subject     string
	RequestedBy string
	RequestedAt time.Time
}
