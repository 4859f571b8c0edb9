package report

import (
	"io"

	"github.com/aymerick/raymond"
)

// Triple-stash keeps paths unescaped; the output is a terminal, not HTML.
var summaryTemplate = raymond.MustParse(`{{{Title}}}
root: {{{Root}}}
{{#if Destination}}destination: {{{Destination}}}
{{/if}}
{{#each Kinds}}{{{this}}}
{{/each}}
{{#if Items}}
{{#each Items}}  {{{this}}}
{{/each}}
{{/if}}
{{#if Pruned}}
Pruned {{len Pruned}} empty directories:
{{#each Pruned}}  {{{this}}}
{{/each}}
{{/if}}
{{#if Warnings}}
Warnings ({{len Warnings}}):
{{#each Warnings}}  {{{this}}}
{{/each}}
{{/if}}`)

var archivesTemplate = raymond.MustParse(`game root: {{{Root}}}
{{#each Rows}}{{{this}}}
{{/each}}
{{Archives}} archives, {{Paths}} distinct paths
{{#if Skipped}}
Skipped:
{{#each Skipped}}  {{{this}}}
{{/each}}
{{/if}}`)

func init() {
	for _, tpl := range []*raymond.Template{summaryTemplate, archivesTemplate} {
		tpl.RegisterHelper("len", func(v interface{}) int {
			switch s := v.(type) {
			case []string:
				return len(s)
			default:
				return 0
			}
		})
	}
}

func render(w io.Writer, tpl *raymond.Template, data interface{}) error {
	out, err := tpl.Exec(data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
