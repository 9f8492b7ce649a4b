package domain

// SubjectType differentiates applicant vs admin tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeAdmin SubjectType = "ADMIN"
)

// TokenPurpose classifies one-time account tokens.
type TokenPurpose string

const (
	TokenPurposeEmailVerify   TokenPurpose = "EMAIL_VERIFY"
	TokenPurposePasswordReset TokenPurpose = "PASSWORD_RESET"
)
