package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// CellText renders a value the way it appears in tables and prompts.
func CellText(v Value) string {
	switch v.Kind() {
	case ValueScalar:
		return v.Text()
	case ValueSequence:
		return strings.Join(v.Items(), "; ")
	default:
		return ""
	}
}

// FormatRecordTable renders the non-absent fields of rec as a markdown table.
func FormatRecordTable(rec *Record) string {
	if rec == nil {
		return ""
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	rows := 0
	for _, name := range rec.Fields() {
		v := rec.Get(name)
		if v.IsAbsent() {
			continue
		}
		_ = table.Append(name, CellText(v))
		rows++
	}
	if rows == 0 {
		return ""
	}
	_ = table.Render()
	return buf.String()
}

func FormatExtractRequest(req *ExtractRequest) string {
	sections := []string{
		fmt.Sprintf("# Current Date:\n%s", time.Now().Format(time.RFC3339)),
	}
	field := fmt.Sprintf("# Target field:\n%s", req.Field.Name)
	if req.Field.DisplayName != "" {
		field += fmt.Sprintf(" (%s)", req.Field.DisplayName)
	}
	if req.Field.Description != "" {
		field += "\n" + req.Field.Description
	}
	sections = append(sections, field)
	if s := FormatRecordTable(req.Record); s != "" {
		sections = append(sections, "# Collected so far:\n"+strings.TrimRight(s, "\n"))
	}
	if req.Question != "" {
		sections = append(sections, fmt.Sprintf("## Assistant Question:\n%s", req.Question))
	}
	sections = append(sections, fmt.Sprintf("## User Answer:\n%s", req.Answer))
	return strings.Join(sections, "\n\n")
}
