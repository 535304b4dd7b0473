// ABOUTME: Tests for the admin commands
// ABOUTME: Verifies user listing, stats formatting and role changes

package cmd

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/markalston/crediteval/internal/client"
)

func TestAdminUsersCommand(t *testing.T) {
	e, backend := testEnv(t)
	loginAs(t, e, backend, "root", client.RoleAdmin)
	backend.AddUser("alice", "alice@example.com", "secret1", "user")

	var buf bytes.Buffer
	if code := runAdminUsers(context.Background(), e, &buf, nil); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "alice@example.com") || !strings.Contains(buf.String(), "2 user(s)") {
		t.Errorf("unexpected users output:\n%s", buf.String())
	}
}

func TestAdminUsersCommand_UserRefused(t *testing.T) {
	e, backend := testEnv(t)
	loginAs(t, e, backend, "alice", client.RoleUser)

	var buf bytes.Buffer
	if code := runAdminUsers(context.Background(), e, &buf, nil); code != exitForbidden {
		t.Errorf("expected exit %d, got %d", exitForbidden, code)
	}
	if backend.Hits("GET /admin/users") != 0 {
		t.Error("expected no admin request from a user account")
	}
}

func TestAdminStatsCommand(t *testing.T) {
	e, backend := testEnv(t)
	id := loginAs(t, e, backend, "root", client.RoleAdmin)
	backend.AddEvaluation(id, 100, 20, 5, 80, 50)
	backend.AddEvaluation(id, 100, 90, 0, 10, 900)

	var buf bytes.Buffer
	if code := runAdminStats(context.Background(), e, &buf, nil); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	out := buf.String()
	for _, want := range []string{"Total Evaluations: 2", "Low", " 50.0% (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatStatsHuman_NoEvaluations(t *testing.T) {
	out := formatStatsHuman(&client.Stats{
		RiskDistribution: []client.RiskBucket{{RiskLevel: "Low", Count: 3}},
	})
	if !strings.Contains(out, "  0.0% (3)") {
		t.Errorf("expected zero share without evaluations, got:\n%s", out)
	}
}

func TestAdminToggleRoleCommand(t *testing.T) {
	e, backend := testEnv(t)
	loginAs(t, e, backend, "root", client.RoleAdmin)
	alice := backend.AddUser("alice", "alice@example.com", "secret1", "user")

	var buf bytes.Buffer
	if code := runAdminToggleRole(context.Background(), e, &buf, []string{strconv.Itoa(alice)}); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if got := backend.UserRole(alice); got != "admin" {
		t.Errorf("expected alice promoted, got %s", got)
	}
	if !strings.Contains(buf.String(), "user -> admin") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestAdminToggleRoleCommand_OwnAccountRefused(t *testing.T) {
	e, backend := testEnv(t)
	root := loginAs(t, e, backend, "root", client.RoleAdmin)

	var buf bytes.Buffer
	if code := runAdminToggleRole(context.Background(), e, &buf, []string{strconv.Itoa(root)}); code != exitValidation {
		t.Errorf("expected exit %d, got %d", exitValidation, code)
	}
	if backend.Hits("PATCH /admin/users/{id}") != 0 {
		t.Error("expected no role update for own account")
	}
	if backend.UserRole(root) != "admin" {
		t.Error("expected own role unchanged")
	}
}

func TestAdminSetRoleCommand_Failure(t *testing.T) {
	e, backend := testEnv(t)
	loginAs(t, e, backend, "root", client.RoleAdmin)
	alice := backend.AddUser("alice", "alice@example.com", "secret1", "user")
	backend.Fail("PATCH /admin/users/{id}", http.StatusInternalServerError, "")

	var buf bytes.Buffer
	if code := runAdminSetRole(context.Background(), e, &buf, []string{strconv.Itoa(alice), "admin"}); code != exitFailure {
		t.Errorf("expected exit %d, got %d", exitFailure, code)
	}
	if !strings.Contains(buf.String(), msgRoleFailed) {
		t.Errorf("expected fallback message, got %q", buf.String())
	}
	if backend.UserRole(alice) != "user" {
		t.Error("expected role unchanged after failure")
	}
}

func TestAdminSetRoleCommand_InvalidRole(t *testing.T) {
	e, backend := testEnv(t)

	var buf bytes.Buffer
	if code := runAdminSetRole(context.Background(), e, &buf, []string{"2", "owner"}); code != exitValidation {
		t.Errorf("expected exit %d, got %d", exitValidation, code)
	}
	if backend.TotalHits() != 0 {
		t.Error("expected no backend calls for an invalid role")
	}
}
