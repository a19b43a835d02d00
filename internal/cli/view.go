package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/language"

	"clubportal/internal/guard"
	"clubportal/internal/session"
)

// terminalView prints guard transitions and reports the first terminal decision.
type terminalView struct {
	out     io.Writer
	title   string
	decided chan guard.Decision
}

func newTerminalView(out io.Writer, title string) *terminalView {
	return &terminalView{out: out, title: title, decided: make(chan guard.Decision, 1)}
}

func (v *terminalView) Loading() {
	fmt.Fprintln(v.out, "Checking access...")
}

func (v *terminalView) Render() {
	fmt.Fprintf(v.out, "Opened %s\n", v.title)
	v.decide(guard.Granted)
}

func (v *terminalView) Redirect(route string) {
	fmt.Fprintf(v.out, "Access denied, redirecting to %s\n", route)
	v.decide(guard.Denied)
}

func (v *terminalView) decide(d guard.Decision) {
	select {
	case v.decided <- d:
	default:
	}
}

func printState(out io.Writer, st session.State) {
	if st.Principal == nil {
		fmt.Fprintf(out, "[%s]\n", st.Status())
		return
	}
	fmt.Fprintf(out, "[%s] %s (%s) role=%s\n", st.Status(), st.Principal.DisplayName, st.Principal.ID, st.Role)
}

// localeTag picks the CLI locale from LANG, e.g. fr_FR.UTF-8.
func (a *App) localeTag() language.Tag {
	return a.Catalog.Negotiate("", "", langFromEnv(os.Getenv("LANG")))
}

func langFromEnv(lang string) string {
	for i, r := range lang {
		if r == '.' || r == '@' {
			lang = lang[:i]
			break
		}
	}
	out := []rune(lang)
	for i, r := range out {
		if r == '_' {
			out[i] = '-'
		}
	}
	return string(out)
}
