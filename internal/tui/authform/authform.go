// ABOUTME: Login and registration forms as bubbletea models
// ABOUTME: Wrap huh forms and emit a submit message once the user confirms

package authform

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/forms"
	"github.com/markalston/crediteval/internal/tui/styles"
)

// Kind selects which form is shown
type Kind int

const (
	KindLogin Kind = iota
	KindRegister
)

// LoginMsg is sent when the login form is submitted
type LoginMsg struct {
	Email    string
	Password string
	Role     string
}

// RegisterMsg is sent when the registration form is submitted
type RegisterMsg struct {
	Registration forms.Registration
}

var roleOptions = []huh.Option[string]{
	huh.NewOption("User", string(client.RoleUser)),
	huh.NewOption("Admin", string(client.RoleAdmin)),
}

// Form is the login or registration view
type Form struct {
	kind   Kind
	form   *huh.Form
	width  int
	err    string
	values forms.Registration
}

// NewLogin creates the login form
func NewLogin() *Form {
	f := &Form{kind: KindLogin, values: forms.Registration{Role: string(client.RoleUser)}}
	f.form = f.build()
	return f
}

// NewRegister creates the registration form
func NewRegister() *Form {
	f := &Form{kind: KindRegister, values: forms.Registration{Role: string(client.RoleUser)}}
	f.form = f.build()
	return f
}

// Kind reports which form this is
func (f *Form) Kind() Kind {
	return f.kind
}

func (f *Form) build() *huh.Form {
	email := huh.NewInput().
		Title("Email").
		Placeholder("you@example.com").
		Value(&f.values.Email).
		Validate(forms.Required("Email"))
	password := huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&f.values.Password).
		Validate(forms.Required("Password"))
	role := huh.NewSelect[string]().
		Title("Role").
		Options(roleOptions...).
		Value(&f.values.Role)

	if f.kind == KindLogin {
		return huh.NewForm(
			huh.NewGroup(email, password, role).
				Title("Log in").
				Description("Sign in to evaluate credit risk"),
		).WithTheme(styles.FormTheme()).WithShowHelp(false)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&f.values.Username).
				Validate(forms.Required("Username")),
			email,
			password.Description("At least 6 characters"),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&f.values.ConfirmPassword).
				Validate(forms.Required("Password confirmation")),
			role,
		).Title("Create account").
			Description("Register to start evaluating credit risk"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		f.width = ws.Width
	}
	if f.form.State != huh.StateNormal {
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		return f, f.submit()
	}
	return f, cmd
}

func (f *Form) submit() tea.Cmd {
	v := f.values
	if f.kind == KindLogin {
		return func() tea.Msg {
			return LoginMsg{Email: strings.TrimSpace(v.Email), Password: v.Password, Role: v.Role}
		}
	}
	return func() tea.Msg { return RegisterMsg{Registration: v} }
}

// Fail shows message under the form and reopens it with the values kept.
// Passwords are cleared.
func (f *Form) Fail(message string) tea.Cmd {
	f.err = message
	f.values.Password = ""
	f.values.ConfirmPassword = ""
	f.form = f.build()
	return f.form.Init()
}

// Err returns the message shown under the form
func (f *Form) Err() string {
	return f.err
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	sb.WriteString(f.form.View())
	if f.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.ErrorBox.Render(f.err))
	}

	hint := "ctrl+r create an account"
	if f.kind == KindRegister {
		hint = "esc back to log in"
	}
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render(hint))

	width := f.width
	if width <= 0 || width > 72 {
		width = 72
	}
	return lipgloss.NewStyle().Width(width).Render(sb.String())
}
