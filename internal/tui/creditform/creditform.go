// ABOUTME: Credit evaluation form as a two-step bubbletea wizard
// ABOUTME: Uses huh forms with a step progress indicator and emits the parsed input

package creditform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/forms"
	"github.com/markalston/crediteval/internal/tui/icons"
	"github.com/markalston/crediteval/internal/tui/styles"
)

// SubmitMsg is sent when both steps are complete and the input parses
type SubmitMsg struct {
	Input client.CreditInput
}

// CancelledMsg is sent when the user leaves the form
type CancelledMsg struct{}

// Step names for progress indicator
var stepNames = []string{"Finances", "Credit History"}

// Form collects the five evaluation fields over two steps
type Form struct {
	fields forms.CreditFields
	form   *huh.Form
	step   int
	width  int
	err    string
	done   bool
}

// New creates an empty evaluation form
func New() *Form {
	f := &Form{step: 1}
	f.form = f.createStep1Form()
	return f
}

func (f *Form) createStep1Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly income").
				Placeholder("e.g., 12500.75").
				Value(&f.fields.Income).
				Validate(forms.ValidateAmount),
			huh.NewInput().
				Title("Monthly debt payments").
				Placeholder("e.g., 2000").
				Value(&f.fields.Debts).
				Validate(forms.ValidateAmount),
			huh.NewInput().
				Title("Requested loan amount").
				Placeholder("e.g., 50000").
				Value(&f.fields.RequestedAmount).
				Validate(forms.ValidateAmount),
		).Title("Step 1: Finances").
			Description("Amounts may include thousands separators"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (f *Form) createStep2Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Years employed").
				Description(fmt.Sprintf("Whole years, 0-%d", forms.MaxEmploymentYears)).
				CharLimit(2).
				Value(&f.fields.EmploymentYears).
				Validate(forms.ValidateYears),
			huh.NewInput().
				Title("Credit history score").
				Description(fmt.Sprintf("0-%d", forms.MaxHistoryScore)).
				CharLimit(3).
				Value(&f.fields.CreditHistoryScore).
				Validate(forms.ValidateHistoryScore),
		).Title("Step 2: Credit History").
			Description("Press Enter on the last field to submit"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return f, func() tea.Msg { return CancelledMsg{} }
		}
	}
	if f.done {
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		return f.advanceStep()
	}
	return f, cmd
}

func (f *Form) advanceStep() (tea.Model, tea.Cmd) {
	if f.step == 1 {
		f.step = 2
		f.form = f.createStep2Form()
		return f, f.form.Init()
	}

	input, err := forms.ParseCreditInput(f.fields)
	if err != nil {
		return f, f.Fail(client.Message(err, "Invalid input"))
	}
	f.done = true
	f.err = ""
	return f, func() tea.Msg { return SubmitMsg{Input: input} }
}

// Fail shows message and reopens the last step with the values kept
func (f *Form) Fail(message string) tea.Cmd {
	f.err = message
	f.done = false
	f.step = 2
	f.form = f.createStep2Form()
	return f.form.Init()
}

// Fields returns the raw field values
func (f *Form) Fields() forms.CreditFields {
	return f.fields
}

// SetWidth sets the form width for proper rendering
func (f *Form) SetWidth(width int) {
	f.width = width
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder

	sb.WriteString(f.renderProgress())
	sb.WriteString("\n\n")
	if f.done {
		sb.WriteString(styles.Label.Render("Submitting..."))
	} else {
		sb.WriteString(f.form.View())
	}
	if f.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.ErrorBox.Render(f.err))
	}
	return sb.String()
}

// renderProgress renders the step progress indicator
func (f *Form) renderProgress() string {
	width := f.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		switch {
		case stepNum < f.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		case stepNum == f.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		default:
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}
	stepsLine := strings.Join(steps, "    ")

	// "│  " + bar + " │"
	barWidth := width - 5
	filledWidth := (f.step * barWidth) / len(stepNames)
	progressBar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth)) +
		lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", barWidth-filledWidth))

	title := "New Evaluation"
	topBorder := "┌─ " + titleStyle.Render(title) + " " + strings.Repeat("─", max(0, width-5-lipgloss.Width(title))) + "┐"
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", max(0, width-4-lipgloss.Width(stepsLine))) + " │"
	progressLine := "│  " + progressBar + " │"
	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLine,
		bottomBorder,
	}, "\n"))
}
