package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const width = 70

// Render writes the console rendition of a report
func Render(w io.Writer, r *Report) error {
	sep := strings.Repeat("=", width)
	thin := strings.Repeat("-", width)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n  %s\n%s\n", sep, strings.ToUpper(r.Title), sep)
	fmt.Fprintf(&b, "  Records analysed : %d\n", r.Records)
	if r.Dropped > 0 {
		fmt.Fprintf(&b, "  Records skipped  : %d (missing fields)\n", r.Dropped)
	}
	if len(r.Defaulted) > 0 {
		fields := make([]string, 0, len(r.Defaulted))
		for f := range r.Defaulted {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = fmt.Sprintf("%s=%d", f, r.Defaulted[f])
		}
		fmt.Fprintf(&b, "  Values defaulted : %s\n", strings.Join(parts, ", "))
	}

	if len(r.Metrics) > 0 {
		fmt.Fprintf(&b, "\n  Summary\n  %s\n", thin[:width-2])
		for _, m := range r.Metrics {
			fmt.Fprintf(&b, "  • %-34s %s\n", m.Label, formatMetric(m))
		}
	}

	for _, t := range r.Tables {
		renderTable(&b, t, thin[:width-2])
	}

	for _, n := range r.Notes {
		fmt.Fprintf(&b, "\n  note: %s\n", n)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func formatMetric(m Metric) string {
	if m.Format == "" {
		return fmt.Sprintf("%.2f", m.Value)
	}
	if strings.Contains(m.Format, "%d") {
		return fmt.Sprintf(m.Format, int64(m.Value))
	}
	return fmt.Sprintf(m.Format, m.Value)
}

func renderTable(b *strings.Builder, t Table, rule string) {
	fmt.Fprintf(b, "\n  %s\n  %s\n", t.Title, rule)
	if len(t.Rows) == 0 {
		b.WriteString("  no data\n")
		return
	}

	labelWidth := 12
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	fmt.Fprintf(b, "  %-*s", labelWidth, "")
	for _, c := range t.Columns {
		fmt.Fprintf(b, " %12s", c)
	}
	b.WriteString("\n")

	for _, row := range t.Rows {
		fmt.Fprintf(b, "  %-*s", labelWidth, row.Label)
		for _, v := range row.Values {
			fmt.Fprintf(b, " %12s", trimFloat(v))
		}
		b.WriteString("\n")
	}
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
