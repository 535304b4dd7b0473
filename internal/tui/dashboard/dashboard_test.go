// ABOUTME: Tests for dashboard component
// ABOUTME: Validates history table, empty state and score trend

package dashboard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/crediteval/internal/client"
)

func sampleHistory() []client.CreditResult {
	return []client.CreditResult{
		{ID: "102", CreditScore: 81, RiskLevel: "Low", Income: 12500.75, Debts: 2000},
		{ID: "101", CreditScore: 55, RiskLevel: "Medium", Income: 4000, Debts: 1500},
		{ID: "100", CreditScore: 30, RiskLevel: "High", Income: 1000, Debts: 900},
	}
}

func TestDashboardView(t *testing.T) {
	d := New(&client.User{Username: "alice"}, sampleHistory(), 120, 30)
	view := d.View()

	for _, expected := range []string{
		"Welcome, alice",
		"Evaluations",
		"M12,500.75",
		"Medium",
	} {
		if !strings.Contains(view, expected) {
			t.Errorf("expected view to contain %q\nView:\n%s", expected, view)
		}
	}
}

func TestDashboardEmpty(t *testing.T) {
	d := New(&client.User{Username: "alice"}, nil, 80, 24)
	view := d.View()

	if !strings.Contains(view, EmptyMessage) {
		t.Errorf("expected empty state, got:\n%s", view)
	}
	if _, ok := d.Selected(); ok {
		t.Error("expected no selection without history")
	}
}

func TestDashboardSelection(t *testing.T) {
	d := New(nil, sampleHistory(), 120, 30)

	id, ok := d.Selected()
	if !ok || id != "102" {
		t.Errorf("expected first row selected, got %q", id)
	}

	d.Update(tea.KeyMsg{Type: tea.KeyDown})
	if id, _ := d.Selected(); id != "101" {
		t.Errorf("expected second row after moving down, got %q", id)
	}
}

func TestScoreTrend_OldestFirst(t *testing.T) {
	d := New(nil, sampleHistory(), 120, 30)
	trend := d.scoreTrend()
	if len(trend) != 3 || trend[0] != 30 || trend[2] != 81 {
		t.Errorf("expected scores oldest first, got %v", trend)
	}
}

func TestSelected_UsesCreditInputID(t *testing.T) {
	d := New(nil, []client.CreditResult{{ID: "500", CreditInputID: "100"}}, 120, 30)
	if id, _ := d.Selected(); id != "100" {
		t.Errorf("expected credit input id, got %q", id)
	}
}
