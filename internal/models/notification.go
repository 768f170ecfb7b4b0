package models

type EmailNotificationRequest struct {
	To          string   `json:"to" validate:"required,email"`
	ToName      string   `json:"toName,omitempty"`
	CC          []string `json:"cc,omitempty" validate:"omitempty,dive,email"`
	BCC         []string `json:"bcc,omitempty" validate:"omitempty,dive,email"`
	Subject     string   `json:"subject" validate:"required"`
	Content     string   `json:"content" validate:"required"`
	HTMLContent string   `json:"htmlContent,omitempty"`
}
