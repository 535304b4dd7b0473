// ABOUTME: Wire types for the credit evaluation API
// ABOUTME: Decoders tolerate string-encoded numbers, numeric ids and loose timestamps

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Role is a user's authorization level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates user-supplied role text
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q: must be user or admin", s)
	}
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Toggle returns the opposite role
func (r Role) Toggle() Role {
	if r == RoleAdmin {
		return RoleUser
	}
	return RoleAdmin
}

// OrDefault returns r, or RoleUser when r is unknown
func (r Role) OrDefault() Role {
	if r.Valid() {
		return r
	}
	return RoleUser
}

// UnmarshalJSON maps unknown role values to the empty role
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*r = ""
		return nil
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("role must be a string: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		*r = ""
		return nil
	}
	*r = parsed
	return nil
}

// ID is a resource identifier; the backend may send it as a number or a string
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Number is a numeric field that may arrive as a JSON number or a numeric
// string. null and "" decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	text := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %q", text)
	}
	*n = Number(f)
	return nil
}

// Float returns the value as float64
func (n Number) Float() float64 {
	return float64(n)
}

// Int returns the value rounded to the nearest integer
func (n Number) Int() int {
	return int(math.Round(float64(n)))
}

// timestampLayouts are tried in order when decoding a Timestamp
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// Timestamp decodes the date formats the backend and its database emit.
// Unparseable values become the zero time rather than failing the response.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parseTimestamp(strings.TrimSpace(s))
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Display renders the date part, or "-" when unknown
func (t Timestamp) Display() string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// User is the backend's view of an account
type User struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Profile is the registration request body
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// AuthResponse is returned by /login and /register
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreditInput is the financial data submitted for evaluation
type CreditInput struct {
	Income             float64 `json:"income"`
	Debts              float64 `json:"debts"`
	EmploymentYears    int     `json:"employment_years"`
	CreditHistoryScore int     `json:"credit_history_score"`
	RequestedAmount    float64 `json:"requested_amount"`
}

// CreditResult is an evaluation outcome. History records share this shape;
// their ID is the credit input id.
type CreditResult struct {
	ID                 ID        `json:"id"`
	CreditInputID      ID        `json:"credit_input_id,omitempty"`
	CreditScore        Number    `json:"credit_score"`
	RiskLevel          string    `json:"risk_level"`
	Recommendation     string    `json:"recommendation,omitempty"`
	EvaluatedAt        Timestamp `json:"evaluated_at"`
	Income             Number    `json:"income"`
	Debts              Number    `json:"debts"`
	EmploymentYears    Number    `json:"employment_years"`
	CreditHistoryScore Number    `json:"credit_history_score"`
	RequestedAmount    Number    `json:"requested_amount"`
}

// InputID returns the credit input id this result belongs to
func (r *CreditResult) InputID() ID {
	if r.CreditInputID != "" {
		return r.CreditInputID
	}
	return r.ID
}

// submitResponse is the body of POST /credit-inputs
type submitResponse struct {
	Message string        `json:"message,omitempty"`
	Result  *CreditResult `json:"result"`
}

// RiskBucket is one entry of the risk distribution
type RiskBucket struct {
	RiskLevel string `json:"risk_level"`
	Count     Number `json:"count"`
}

// Stats is the aggregate view returned by /admin/stats
type Stats struct {
	TotalUsers       Number       `json:"totalUsers"`
	TotalEvaluations Number       `json:"totalEvaluations"`
	AverageScore     Number       `json:"averageScore"`
	RiskDistribution []RiskBucket `json:"riskDistribution"`
}

// AdminOverview combines the two admin resources loaded together
type AdminOverview struct {
	Users []User `json:"users"`
	Stats *Stats `json:"stats"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
