package render

import (
	"strings"

	"github.com/c360studio/proteus/markup"
	"github.com/c360studio/proteus/model"
)

// Matrix markup classes.
const (
	MatrixTableClass   = "traceability-matrix-table"
	MatrixWarningClass = "traceability-matrix-warning"
)

// BuildMatrix renders the traceability matrix between the objects
// carrying any of colTokens (columns) and any of rowTokens (rows). A cell
// is traced when the row's subtree traces into the column's subtree. When
// either side resolves to no objects a warning block is returned instead.
//
// The result depends only on the token sets and the project state.
func (r *Renderer) BuildMatrix(p *model.Project, colTokens, rowTokens []string) string {
	var out string
	_ = p.View(func() error {
		c := r.newContext(p, false)
		out = c.Matrix(colTokens, rowTokens)
		return nil
	})
	return out
}

// Matrix builds a traceability matrix within the current pass.
func (c *Context) Matrix(colTokens, rowTokens []string) string {
	cols := c.index.Resolve(colTokens)
	rows := c.index.Resolve(rowTokens)

	if len(cols) == 0 || len(rows) == 0 {
		c.r.metrics.MatrixWarning()
		c.r.logger.Debug("Empty traceability matrix",
			"pass", c.passID, "columns", colTokens, "rows", rowTokens)
		return c.matrixWarning(colTokens, rowTokens, len(cols) == 0, len(rows) == 0)
	}

	marker := markup.Escape(c.r.config.Matrix.TraceMarker)
	placeholder := markup.Escape(c.r.config.Matrix.Placeholder)
	traced := markup.Escape(c.Text("traceability-matrix.trace"))
	untraced := markup.Escape(c.Text("traceability-matrix.no-trace"))

	var sb strings.Builder
	sb.WriteString(`<table class="` + MatrixTableClass + `">`)

	sb.WriteString(`<thead><tr><th class="corner"></th>`)
	for _, col := range cols {
		sb.WriteString(`<th class="column-header">`)
		sb.WriteString(c.ObjectLink(col))
		sb.WriteString("</th>")
	}
	sb.WriteString("</tr></thead>")

	sb.WriteString("<tbody>")
	for _, row := range rows {
		sb.WriteString(`<tr><th class="row-header">`)
		sb.WriteString(c.ObjectLink(row))
		sb.WriteString("</th>")
		deps := make(map[string]bool)
		for _, id := range c.index.Dependencies(row.ID, cols) {
			deps[id] = true
		}
		for _, col := range cols {
			if deps[col.ID] {
				sb.WriteString(`<td class="trace" title="` + traced + `">` + marker + "</td>")
			} else {
				sb.WriteString(`<td class="no-trace" title="` + untraced + `">` + placeholder + "</td>")
			}
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")
	return sb.String()
}

func (c *Context) matrixWarning(colTokens, rowTokens []string, noCols, noRows bool) string {
	var msg string
	switch {
	case noCols && !noRows:
		msg = c.Text("traceability-matrix.warning.columns", joinTokens(colTokens))
	case noRows && !noCols:
		msg = c.Text("traceability-matrix.warning.rows", joinTokens(rowTokens))
	default:
		msg = c.Text("traceability-matrix.warning.empty")
	}
	return `<div class="` + MatrixWarningClass + `">` + markup.Escape(msg) + "</div>"
}

func joinTokens(tokens []string) string {
	if len(tokens) == 0 {
		return "∅"
	}
	return strings.Join(tokens, ", ")
}
