package http

import (
	"fmt"

	"afi-portal/internal/portal/domain/model"

	"github.com/google/cel-go/cel"
)

// MenuItem is one navigation entry of the shell.
type MenuItem struct {
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Path   string `json:"path"`
	Active bool   `json:"active,omitempty"`
}

// Crumb is one breadcrumb.
type Crumb struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Shell is the chrome around every protected view.
type Shell struct {
	Portal      string     `json:"portal"`
	Initial     string     `json:"initial"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	Role        model.Role `json:"role,omitempty"`
	Menu        []MenuItem `json:"menu"`
	Breadcrumbs []Crumb    `json:"breadcrumbs"`
	LogoutPath  string     `json:"logout_path"`
}

type menuEntry struct {
	item MenuItem
	when string
}

// menuCatalog lists every navigation entry in display order. when is a CEL
// expression over the role of the user.
var menuCatalog = []menuEntry{
	{MenuItem{Label: "Dashboard", Icon: "dashboard", Path: "/dashboard"}, `true`},
	{MenuItem{Label: "My Schedule", Icon: "schedule", Path: "/schedule"}, `role == "doctor"`},
	{MenuItem{Label: "Patient Records", Icon: "people", Path: "/patient-records"}, `role == "doctor"`},
	{MenuItem{Label: "Analysis History", Icon: "history", Path: "/analysis-history"}, `role == "doctor"`},
	{MenuItem{Label: "Reports", Icon: "assessment", Path: "/reports"}, `role == "doctor"`},
	{MenuItem{Label: "Book Appointment", Icon: "schedule", Path: "/appointments"}, `role != "doctor"`},
	{MenuItem{Label: "External Booking", Icon: "local_hospital", Path: "/external-booking"}, `role != "doctor"`},
	{MenuItem{Label: "Health Records", Icon: "assessment", Path: "/health-records"}, `role != "doctor"`},
	{MenuItem{Label: "Medical History", Icon: "history", Path: "/medical-history"}, `role != "doctor"`},
	{MenuItem{Label: "Settings", Icon: "settings", Path: "/settings"}, `true`},
}

// breadcrumbLabels maps a view path to its breadcrumb label.
var breadcrumbLabels = map[string]string{
	"/dashboard":        "Dashboard",
	"/schedule":         "My Schedule",
	"/patient-records":  "Patient Records",
	"/analysis-history": "Analysis History",
	"/reports":          "Reports",
	"/appointments":     "Book Appointment",
	"/external-booking": "External Booking",
	"/health-records":   "Health Records",
	"/medical-history":  "Medical History",
	"/settings":         "Settings",
}

// ShellBuilder renders the shell. Menus are computed once per role.
type ShellBuilder struct {
	doctorMenu  []MenuItem
	patientMenu []MenuItem
}

// NewShellBuilder compiles the menu rules.
func NewShellBuilder() (*ShellBuilder, error) {
	env, err := cel.NewEnv(cel.Variable("role", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("create menu rule environment: %w", err)
	}

	programs := make([]cel.Program, len(menuCatalog))
	for i, entry := range menuCatalog {
		ast, issues := env.Compile(entry.when)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile menu rule %q: %w", entry.item.Label, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program menu rule %q: %w", entry.item.Label, err)
		}
		programs[i] = prg
	}

	b := &ShellBuilder{}
	if b.doctorMenu, err = menuFor(programs, model.RoleDoctor); err != nil {
		return nil, err
	}
	if b.patientMenu, err = menuFor(programs, model.RolePatient); err != nil {
		return nil, err
	}
	return b, nil
}

func menuFor(programs []cel.Program, role model.Role) ([]MenuItem, error) {
	vars := map[string]interface{}{"role": string(role)}
	menu := make([]MenuItem, 0, len(programs))
	for i, prg := range programs {
		out, _, err := prg.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("evaluate menu rule %q: %w", menuCatalog[i].item.Label, err)
		}
		visible, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("menu rule %q did not return a boolean", menuCatalog[i].item.Label)
		}
		if visible {
			menu = append(menu, menuCatalog[i].item)
		}
	}
	return menu, nil
}

// Menu returns the navigation of role. Every role other than doctor gets the
// patient menu.
func (b *ShellBuilder) Menu(role model.Role) []MenuItem {
	src := b.patientMenu
	if role.IsDoctor() {
		src = b.doctorMenu
	}
	return append([]MenuItem(nil), src...)
}

// Breadcrumbs returns the trail of path: the dashboard root, plus the label
// of path when it is a known view other than the dashboard.
func Breadcrumbs(path string) []Crumb {
	crumbs := []Crumb{{Label: "Dashboard", Path: "/dashboard"}}
	if label, ok := breadcrumbLabels[path]; ok && path != "/dashboard" {
		crumbs = append(crumbs, Crumb{Label: label, Path: path})
	}
	return crumbs
}

// Build renders the shell of a caller on path.
func (b *ShellBuilder) Build(caller model.Caller, path string) *Shell {
	s := caller.Session
	if s == nil {
		s = &model.Session{}
	}
	menu := b.Menu(s.Role)
	for i := range menu {
		menu[i].Active = menu[i].Path == path
	}
	return &Shell{
		Portal:      s.Role.Portal(),
		Initial:     s.Initial(),
		Email:       s.Email,
		FullName:    s.FullName,
		Role:        s.Role,
		Menu:        menu,
		Breadcrumbs: Breadcrumbs(path),
		LogoutPath:  "/logout",
	}
}
