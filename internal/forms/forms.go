// ABOUTME: Client-side validation for registration, login and credit input forms
// ABOUTME: Shared by the TUI forms and the command-line flags

package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/markalston/crediteval/internal/client"
)

const (
	MinPasswordLength  = 6
	MaxEmploymentYears = 50
	MaxHistoryScore    = 100
)

const (
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordTooShort = "Password must be at least 6 characters"
)

// ValidationError rejects input before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UserMessage is the text shown next to the form
func (e *ValidationError) UserMessage() string {
	return e.Message
}

// Registration is the raw register form
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
}

// ValidateRegistration checks the form and returns the request body
func ValidateRegistration(r Registration) (client.Profile, error) {
	username := strings.TrimSpace(r.Username)
	email := strings.TrimSpace(r.Email)

	switch {
	case username == "":
		return client.Profile{}, &ValidationError{Field: "username", Message: "Username is required"}
	case email == "":
		return client.Profile{}, &ValidationError{Field: "email", Message: "Email is required"}
	case !strings.Contains(email, "@"):
		return client.Profile{}, &ValidationError{Field: "email", Message: "Enter a valid email address"}
	case r.Password == "":
		return client.Profile{}, &ValidationError{Field: "password", Message: "Password is required"}
	case r.Password != r.ConfirmPassword:
		return client.Profile{}, &ValidationError{Field: "confirm_password", Message: MsgPasswordMismatch}
	case len(r.Password) < MinPasswordLength:
		return client.Profile{}, &ValidationError{Field: "password", Message: MsgPasswordTooShort}
	}

	role, err := parseRoleField(r.Role)
	if err != nil {
		return client.Profile{}, err
	}

	return client.Profile{
		Username: username,
		Email:    email,
		Password: r.Password,
		Role:     role,
	}, nil
}

// ValidateLogin checks the login form and returns the request body
func ValidateLogin(email, password, role string) (client.Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return client.Credentials{}, &ValidationError{Field: "email", Message: "Email is required"}
	}
	if password == "" {
		return client.Credentials{}, &ValidationError{Field: "password", Message: "Password is required"}
	}
	parsed, err := parseRoleField(role)
	if err != nil {
		return client.Credentials{}, err
	}
	return client.Credentials{Email: email, Password: password, Role: parsed}, nil
}

// CreditFields is the raw credit form, one string per input
type CreditFields struct {
	Income             string
	Debts              string
	EmploymentYears    string
	CreditHistoryScore string
	RequestedAmount    string
}

// ParseCreditInput converts the form to typed values. Amounts are decimals,
// years and history score are whole numbers.
func ParseCreditInput(f CreditFields) (client.CreditInput, error) {
	var in client.CreditInput
	var err error

	if in.Income, err = parseAmount("income", "Income", f.Income); err != nil {
		return client.CreditInput{}, err
	}
	if in.Debts, err = parseAmount("debts", "Debts", f.Debts); err != nil {
		return client.CreditInput{}, err
	}
	if in.EmploymentYears, err = parseWhole("employment_years", "Employment years", f.EmploymentYears, MaxEmploymentYears); err != nil {
		return client.CreditInput{}, err
	}
	if in.CreditHistoryScore, err = parseWhole("credit_history_score", "Credit history score", f.CreditHistoryScore, MaxHistoryScore); err != nil {
		return client.CreditInput{}, err
	}
	if in.RequestedAmount, err = parseAmount("requested_amount", "Requested amount", f.RequestedAmount); err != nil {
		return client.CreditInput{}, err
	}
	return in, nil
}

// ValidateCreditInput checks an already typed input against the same bounds
func ValidateCreditInput(in client.CreditInput) error {
	checks := []struct {
		field, label string
		value        float64
		max          float64
	}{
		{"income", "Income", in.Income, 0},
		{"debts", "Debts", in.Debts, 0},
		{"employment_years", "Employment years", float64(in.EmploymentYears), MaxEmploymentYears},
		{"credit_history_score", "Credit history score", float64(in.CreditHistoryScore), MaxHistoryScore},
		{"requested_amount", "Requested amount", in.RequestedAmount, 0},
	}
	for _, c := range checks {
		if c.value < 0 {
			return &ValidationError{Field: c.field, Message: c.label + " cannot be negative"}
		}
		if c.max > 0 && c.value > c.max {
			return &ValidationError{Field: c.field, Message: fmt.Sprintf("%s must be at most %d", c.label, int(c.max))}
		}
	}
	return nil
}

// Field validators for huh inputs

// ValidateAmount accepts a non-negative decimal
func ValidateAmount(s string) error {
	_, err := parseAmount("", "Value", s)
	return err
}

// ValidateYears accepts a whole number of employment years
func ValidateYears(s string) error {
	_, err := parseWhole("", "Value", s, MaxEmploymentYears)
	return err
}

// ValidateHistoryScore accepts a whole score from 0 to 100
func ValidateHistoryScore(s string) error {
	_, err := parseWhole("", "Value", s, MaxHistoryScore)
	return err
}

// Required rejects blank input
func Required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Message: label + " is required"}
		}
		return nil
	}
}

func parseAmount(field, label, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: field, Message: label + " is required"}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Message: label + " must be a number"}
	}
	if v < 0 {
		return 0, &ValidationError{Field: field, Message: label + " cannot be negative"}
	}
	return v, nil
}

func parseWhole(field, label, s string, max int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: field, Message: label + " is required"}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: field, Message: label + " must be a whole number"}
	}
	if v < 0 {
		return 0, &ValidationError{Field: field, Message: label + " cannot be negative"}
	}
	if v > max {
		return 0, &ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d", label, max)}
	}
	return v, nil
}

func parseRoleField(role string) (client.Role, error) {
	if strings.TrimSpace(role) == "" {
		return client.RoleUser, nil
	}
	r, err := client.ParseRole(role)
	if err != nil {
		return "", &ValidationError{Field: "role", Message: "Role must be user or admin"}
	}
	return r, nil
}
