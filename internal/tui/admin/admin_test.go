// ABOUTME: Tests for the admin panel
// ABOUTME: Verifies stats rendering, own-row protection and role application

package admin

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/crediteval/internal/client"
)

func sampleOverview() *client.AdminOverview {
	return &client.AdminOverview{
		Users: []client.User{
			{ID: "1", Username: "root", Email: "root@example.com", Role: client.RoleAdmin},
			{ID: "2", Username: "alice", Email: "alice@example.com", Role: client.RoleUser},
			{ID: "3", Username: "legacy", Email: "legacy@example.com"},
		},
		Stats: client.Stats{
			TotalUsers:       3,
			TotalEvaluations: 4,
			AverageScore:     61.5,
			RiskDistribution: []client.RiskBucket{
				{RiskLevel: "Low", Count: 1},
				{RiskLevel: "High", Count: 3},
			},
		},
	}
}

func TestPanelView(t *testing.T) {
	p := New("1", sampleOverview(), 120, 40)
	view := p.View()

	for _, expected := range []string{
		"Admin Panel",
		"61.5",
		"25.0% (1)",
		"75.0% (3)",
		"alice@example.com",
		"root (you)",
	} {
		if !strings.Contains(view, expected) {
			t.Errorf("expected view to contain %q\nView:\n%s", expected, view)
		}
	}
}

func TestPanelView_ZeroEvaluations(t *testing.T) {
	overview := sampleOverview()
	overview.Stats.TotalEvaluations = 0
	view := New("1", overview, 120, 40).View()

	if !strings.Contains(view, "0.0% (1)") {
		t.Errorf("expected zero share without evaluations\nView:\n%s", view)
	}
}

func TestToggleTarget_OwnRowRefused(t *testing.T) {
	p := New("1", sampleOverview(), 120, 40)

	if _, _, err := p.ToggleTarget(); !errors.Is(err, ErrOwnRole) {
		t.Errorf("expected ErrOwnRole for own row, got %v", err)
	}
}

func TestToggleTarget_OtherRows(t *testing.T) {
	p := New("1", sampleOverview(), 120, 40)

	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	u, role, err := p.ToggleTarget()
	if err != nil || u.ID != "2" || role != client.RoleAdmin {
		t.Errorf("expected alice to be promoted, got %v %s %v", u.ID, role, err)
	}

	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	u, role, _ = p.ToggleTarget()
	if u.ID != "3" || role != client.RoleAdmin {
		t.Errorf("expected missing role treated as user, got %v %s", u.ID, role)
	}
}

func TestApplyRole(t *testing.T) {
	p := New("1", sampleOverview(), 120, 40)
	p.ApplyRole("2", client.RoleAdmin)

	if p.Users()[1].Role != client.RoleAdmin {
		t.Error("expected role applied")
	}
	if p.Users()[0].Role != client.RoleAdmin || p.Users()[2].Role != "" {
		t.Error("expected other rows unchanged")
	}
}
