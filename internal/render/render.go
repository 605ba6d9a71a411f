// Package render renders a step's command/stdin/env templates against
// the context exposed in spec §6.5. Uses text/template (stdlib), in the
// style of the teacher's helpText template in main.go — hk's templates
// are single-expression shell snippets, not documents, so no templating
// library beyond the stdlib is warranted (see DESIGN.md).
package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Context is the set of variables exposed to a rendered template (spec
// §6.5): the shell-quoted file list, the workspace indicator path (when
// applicable), the glob/regex pattern text, and any user-provided
// key/value pairs from the hook configuration.
type Context struct {
	Files              string
	WorkspaceIndicator string
	Globs              string
	Vars               map[string]string
}

// ToMap flattens Context into the map text/template expects, merging
// Vars alongside the built-in fields (a Vars key never shadows a
// built-in one).
func (c Context) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"files":               c.Files,
		"workspace_indicator": c.WorkspaceIndicator,
		"globs":               c.Globs,
	}
	for k, v := range c.Vars {
		if _, reserved := m[k]; !reserved {
			m[k] = v
		}
	}
	return m
}

// Render parses and executes tmpl against ctx.
func Render(tmpl string, ctx Context) (string, error) {
	t, err := template.New("hk").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing template %q: %w", tmpl, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx.ToMap()); err != nil {
		return "", fmt.Errorf("rendering template %q: %w", tmpl, err)
	}
	return buf.String(), nil
}

// QuoteJoin shell-quotes and space-joins files using POSIX single-quote
// style (wrap in single quotes, escaping embedded single quotes), which
// is safe for the default `sh -o errexit -c` invocation as well as any
// other POSIX-compatible shell configured via `shell`.
func QuoteJoin(files []string) string {
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = quotePosix(f)
	}
	return strings.Join(quoted, " ")
}

func quotePosix(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
