package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

type section struct {
	Category Category
	Title    string
	Rows     []row
}

type row struct {
	Seq      int
	Stripe   string
	Result   string
	Class    string
	Label    string
	Message  string
	HelpLink string
}

type documentView struct {
	Doc      Document
	Title    string
	Source   string
	Verdict  string
	Fatal    string
	Sections []section
	Empty    bool
}

func (r *Report) viewLocked(doc Document) documentView {
	view := documentView{Doc: doc, Source: r.source}
	if doc == Validation {
		view.Title = "Validation report"
		view.Verdict = r.validity.String()
		view.Fatal = r.fatal
	} else {
		view.Title = "File information"
	}
	for _, category := range Categories {
		if doc == Validation && r.hasFatal && category != CategoryError {
			continue
		}
		entries := r.docs[doc][category]
		if len(entries) == 0 {
			continue
		}
		sec := section{Category: category, Title: category.Title()}
		for _, e := range entries {
			sec.Rows = append(sec.Rows, row{
				Seq:      e.Seq,
				Stripe:   stripe(e.Seq),
				Result:   resultLabel(doc, e),
				Class:    strings.ToLower(e.Validity.String()),
				Label:    e.Label,
				Message:  e.Message,
				HelpLink: e.HelpLink,
			})
		}
		view.Sections = append(view.Sections, sec)
	}
	view.Empty = len(view.Sections) == 0
	return view
}

// stripe alternates by emission order only, so output is stable regardless
// of how categories interleave.
func stripe(seq int) string {
	if seq%2 == 0 {
		return "row-even"
	}
	return "row-odd"
}

func resultLabel(doc Document, e Entry) string {
	if doc == Information {
		return ""
	}
	return e.Validity.String()
}

func renderText(view documentView) string {
	var buf strings.Builder
	buf.WriteString(view.Title)
	if view.Source != "" {
		buf.WriteString(": ")
		buf.WriteString(view.Source)
	}
	buf.WriteByte('\n')
	if view.Doc == Validation {
		fmt.Fprintf(&buf, "Result: %s\n", view.Verdict)
		if view.Fatal != "" {
			fmt.Fprintf(&buf, "Fatal error: %s\n", view.Fatal)
		}
	}
	if view.Empty {
		if view.Doc == Validation {
			buf.WriteString("No problems found.\n")
		} else {
			buf.WriteString("No information recorded.\n")
		}
		return buf.String()
	}
	for _, sec := range view.Sections {
		buf.WriteByte('\n')
		buf.WriteString(sec.Title)
		buf.WriteByte('\n')
		buf.WriteString(sectionTable(view.Doc, sec))
		buf.WriteByte('\n')
	}
	return buf.String()
}

func sectionTable(doc Document, sec section) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if doc == Validation {
		tw.AppendHeader(table.Row{"#", "Result", "Message", "Help"})
		for _, r := range sec.Rows {
			tw.AppendRow(table.Row{strconv.Itoa(r.Seq + 1), r.Result, r.Message, r.HelpLink})
		}
	} else {
		tw.AppendHeader(table.Row{"Property", "Value"})
		for _, r := range sec.Rows {
			tw.AppendRow(table.Row{r.Label, r.Message})
		}
	}
	return tw.Render()
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 1.5em; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1em; }
td, th { padding: 0.3em 0.6em; text-align: left; vertical-align: top; }
tr.row-even { background: #ffffff; }
tr.row-odd { background: #f0f0f0; }
td.fail, td.incomplete { color: #b00020; font-weight: bold; }
td.warn { color: #a05a00; font-weight: bold; }
p.fatal { color: #b00020; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Source}}<p class="source">{{.Source}}</p>{{end}}
{{if eq .Doc 0}}<p class="verdict">Result: {{.Verdict}}</p>{{end}}
{{if .Fatal}}<p class="fatal">{{.Fatal}}</p>{{end}}
{{if .Empty}}<p class="empty">{{if eq .Doc 0}}No problems found.{{else}}No information recorded.{{end}}</p>{{end}}
{{range .Sections}}<h2>{{.Title}}</h2>
<table>
{{range .Rows}}<tr class="{{.Stripe}}">{{if eq $.Doc 0}}<td class="{{.Class}}">{{.Result}}</td><td>{{.Message}}{{if .HelpLink}} <a href="{{.HelpLink}}">help</a>{{end}}</td>{{else}}<th>{{.Label}}</th><td>{{.Message}}</td>{{end}}</tr>
{{end}}</table>
{{end}}</body>
</html>
`))

// htmlRenderer is swapped in tests.
var htmlRenderer = renderHTML

func renderHTML(view documentView) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
