// ABOUTME: Tests for form validation
// ABOUTME: Covers registration rules, numeric parsing and bounds for the credit form

package forms

import (
	"errors"
	"testing"

	"github.com/markalston/crediteval/internal/client"
)

func TestValidateRegistration(t *testing.T) {
	valid := Registration{
		Username: "alice", Email: "alice@example.com",
		Password: "secret1", ConfirmPassword: "secret1", Role: "admin",
	}

	tests := []struct {
		name    string
		mutate  func(r *Registration)
		wantMsg string
	}{
		{"valid", func(r *Registration) {}, ""},
		{"mismatch", func(r *Registration) { r.ConfirmPassword = "secret2" }, MsgPasswordMismatch},
		{"too short", func(r *Registration) { r.Password, r.ConfirmPassword = "abc", "abc" }, MsgPasswordTooShort},
		{"missing username", func(r *Registration) { r.Username = "  " }, "Username is required"},
		{"missing email", func(r *Registration) { r.Email = "" }, "Email is required"},
		{"bad email", func(r *Registration) { r.Email = "alice" }, "Enter a valid email address"},
		{"missing password", func(r *Registration) { r.Password, r.ConfirmPassword = "", "" }, "Password is required"},
		{"bad role", func(r *Registration) { r.Role = "root" }, "Role must be user or admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			profile, err := ValidateRegistration(r)

			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if profile.Role != client.RoleAdmin || profile.Username != "alice" {
					t.Errorf("unexpected profile: %+v", profile)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Message != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, ve.Message)
			}
		})
	}
}

func TestValidateRegistration_DefaultsRole(t *testing.T) {
	profile, err := ValidateRegistration(Registration{
		Username: "bob", Email: "bob@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Role != client.RoleUser {
		t.Errorf("expected default role user, got %s", profile.Role)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "password", Message: MsgPasswordTooShort}
	if got := client.Message(err, "Registration failed. Please try again."); got != MsgPasswordTooShort {
		t.Errorf("expected validation message to surface, got %q", got)
	}
}

func TestValidateLogin(t *testing.T) {
	creds, err := ValidateLogin(" alice@example.com ", "pw", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Email != "alice@example.com" || creds.Role != client.RoleUser {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	if _, err := ValidateLogin("", "pw", "user"); err == nil {
		t.Error("expected error for missing email")
	}
	if _, err := ValidateLogin("a@b.c", "", "user"); err == nil {
		t.Error("expected error for missing password")
	}
}

func TestParseCreditInput(t *testing.T) {
	in, err := ParseCreditInput(CreditFields{
		Income: "100", Debts: "20", EmploymentYears: "5", CreditHistoryScore: "80", RequestedAmount: "50",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := client.CreditInput{Income: 100, Debts: 20, EmploymentYears: 5, CreditHistoryScore: 80, RequestedAmount: 50}
	if in != want {
		t.Errorf("expected %+v, got %+v", want, in)
	}
}

func TestParseCreditInput_Decimals(t *testing.T) {
	in, err := ParseCreditInput(CreditFields{
		Income: "12,500.75", Debts: "0.5", EmploymentYears: "0", CreditHistoryScore: "100", RequestedAmount: "1e3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Income != 12500.75 || in.RequestedAmount != 1000 {
		t.Errorf("unexpected amounts: %+v", in)
	}
}

func TestParseCreditInput_Rejects(t *testing.T) {
	base := CreditFields{Income: "100", Debts: "20", EmploymentYears: "5", CreditHistoryScore: "80", RequestedAmount: "50"}

	tests := []struct {
		name      string
		mutate    func(f *CreditFields)
		wantField string
	}{
		{"empty income", func(f *CreditFields) { f.Income = "" }, "income"},
		{"text debts", func(f *CreditFields) { f.Debts = "lots" }, "debts"},
		{"negative debts", func(f *CreditFields) { f.Debts = "-1" }, "debts"},
		{"fractional years", func(f *CreditFields) { f.EmploymentYears = "2.5" }, "employment_years"},
		{"years above max", func(f *CreditFields) { f.EmploymentYears = "51" }, "employment_years"},
		{"score above max", func(f *CreditFields) { f.CreditHistoryScore = "101" }, "credit_history_score"},
		{"missing requested", func(f *CreditFields) { f.RequestedAmount = " " }, "requested_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			_, err := ParseCreditInput(f)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, ve.Field)
			}
		})
	}
}

func TestValidateCreditInput(t *testing.T) {
	if err := ValidateCreditInput(client.CreditInput{Income: 1, EmploymentYears: 50, CreditHistoryScore: 100}); err != nil {
		t.Errorf("unexpected error at bounds: %v", err)
	}
	if err := ValidateCreditInput(client.CreditInput{Income: -1}); err == nil {
		t.Error("expected error for negative income")
	}
	if err := ValidateCreditInput(client.CreditInput{CreditHistoryScore: 120}); err == nil {
		t.Error("expected error for score above 100")
	}
}

func TestFieldValidators(t *testing.T) {
	if ValidateAmount("10.5") != nil || ValidateAmount("x") == nil {
		t.Error("ValidateAmount mismatch")
	}
	if ValidateYears("50") != nil || ValidateYears("51") == nil {
		t.Error("ValidateYears mismatch")
	}
	if ValidateHistoryScore("0") != nil || ValidateHistoryScore("-1") == nil {
		t.Error("ValidateHistoryScore mismatch")
	}
	if Required("Email")("") == nil || Required("Email")("a") != nil {
		t.Error("Required mismatch")
	}
}
