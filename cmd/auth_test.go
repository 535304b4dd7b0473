// ABOUTME: Tests for the session commands
// ABOUTME: Verifies login, register, logout and whoami against the fake backend

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/markalston/crediteval/internal/client"
)

func resetAuthFlags(t *testing.T) {
	t.Helper()
	authEmail, authPassword, authRole, authUsername, authConfirm = "", "", "user", "", ""
	t.Setenv("CREDITEVAL_PASSWORD", "")
	t.Cleanup(func() {
		authEmail, authPassword, authRole, authUsername, authConfirm = "", "", "user", "", ""
	})
}

func TestLoginCommand_Success(t *testing.T) {
	resetAuthFlags(t)
	e, backend := testEnv(t)
	backend.AddUser("root", "root@example.com", "secret1", "admin")
	authEmail, authPassword, authRole = "root@example.com", "secret1", "admin"

	var buf bytes.Buffer
	if code := runLogin(context.Background(), e, &buf, nil); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Home:     /admin") {
		t.Errorf("expected admin home, got %q", buf.String())
	}
	if sess := e.session.Session(); sess == nil || sess.Role != client.RoleAdmin {
		t.Errorf("expected admin session, got %+v", sess)
	}
}

func TestLoginCommand_PasswordFromEnv(t *testing.T) {
	resetAuthFlags(t)
	e, backend := testEnv(t)
	backend.AddUser("alice", "alice@example.com", "secret1", "user")
	authEmail = "alice@example.com"
	t.Setenv("CREDITEVAL_PASSWORD", "secret1")

	var buf bytes.Buffer
	if code := runLogin(context.Background(), e, &buf, nil); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
}

func TestLoginCommand_WrongRole(t *testing.T) {
	resetAuthFlags(t)
	e, backend := testEnv(t)
	backend.AddUser("alice", "alice@example.com", "secret1", "user")
	authEmail, authPassword, authRole = "alice@example.com", "secret1", "admin"

	var buf bytes.Buffer
	if code := runLogin(context.Background(), e, &buf, nil); code != exitFailure {
		t.Errorf("expected exit %d, got %d", exitFailure, code)
	}
	if !strings.Contains(buf.String(), "Invalid credentials for selected role") {
		t.Errorf("expected backend message, got %q", buf.String())
	}
	if e.session.Session() != nil {
		t.Error("expected no session after failed login")
	}
}

func TestLoginCommand_MissingEmailSkipsBackend(t *testing.T) {
	resetAuthFlags(t)
	e, backend := testEnv(t)
	authPassword = "secret1"

	var buf bytes.Buffer
	if code := runLogin(context.Background(), e, &buf, nil); code != exitValidation {
		t.Errorf("expected exit %d, got %d", exitValidation, code)
	}
	if backend.TotalHits() != 0 {
		t.Errorf("expected no backend calls, got %d", backend.TotalHits())
	}
}

func TestRegisterCommand(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantCode int
		wantText string
		wantHits int
	}{
		{"success", "secret1", "", exitOK, "User:     bob <bob@example.com>", 1},
		{"mismatch", "secret1", "secret2", exitValidation, "Passwords do not match", 0},
		{"too short", "abc", "abc", exitValidation, "at least 6 characters", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetAuthFlags(t)
			e, backend := testEnv(t)
			authUsername, authEmail, authPassword, authConfirm = "bob", "bob@example.com", tt.password, tt.confirm

			var buf bytes.Buffer
			if code := runRegister(context.Background(), e, &buf, nil); code != tt.wantCode {
				t.Errorf("expected exit %d, got %d: %s", tt.wantCode, code, buf.String())
			}
			if !strings.Contains(buf.String(), tt.wantText) {
				t.Errorf("expected %q in %q", tt.wantText, buf.String())
			}
			if got := backend.Hits("POST /register"); got != tt.wantHits {
				t.Errorf("expected %d register calls, got %d", tt.wantHits, got)
			}
		})
	}
}

func TestRegisterCommand_BackendError(t *testing.T) {
	resetAuthFlags(t)
	e, backend := testEnv(t)
	backend.Fail("POST /register", http.StatusInternalServerError, "")
	authUsername, authEmail, authPassword = "bob", "bob@example.com", "secret1"

	var buf bytes.Buffer
	if code := runRegister(context.Background(), e, &buf, nil); code != exitFailure {
		t.Errorf("expected exit %d, got %d", exitFailure, code)
	}
	if !strings.Contains(buf.String(), msgRegisterFailed) {
		t.Errorf("expected fallback message, got %q", buf.String())
	}
}

func TestLogoutCommand(t *testing.T) {
	e, backend := testEnv(t)
	loginAs(t, e, backend, "alice", client.RoleUser)

	var buf bytes.Buffer
	if code := runLogout(context.Background(), e, &buf, nil); code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if e.session.CurrentUser(context.Background()) != nil {
		t.Error("expected no current user after logout")
	}
}

func TestWhoamiCommand(t *testing.T) {
	e, backend := testEnv(t)

	var buf bytes.Buffer
	if code := runWhoami(context.Background(), e, &buf, nil); code != exitForbidden {
		t.Errorf("expected exit %d when logged out, got %d", exitForbidden, code)
	}
	if !strings.Contains(buf.String(), "Not logged in") {
		t.Errorf("expected not logged in, got %q", buf.String())
	}

	loginAs(t, e, backend, "alice", client.RoleUser)
	jsonOutput = true
	buf.Reset()
	if code := runWhoami(context.Background(), e, &buf, nil); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["role"] != "user" || parsed["home"] != "/dashboard" {
		t.Errorf("unexpected whoami output %v", parsed)
	}
}
