package dto

// ContactRequest is one contact form submission.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactResponse acknowledges a stored submission.
type ContactResponse struct {
	ID string `json:"id"`
}
