// Package export renders applications and dashboard metrics as CSV.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// ContentType is the media type of every export.
const ContentType = "text/csv; charset=utf-8"

const timestampLayout = "2006-01-02 15:04:05"

type column struct {
	header string
	value  func(domain.Application) string
}

func field(name domain.FieldName) column {
	f, _ := domain.LookupField(name)
	return column{header: f.Label, value: func(a domain.Application) string { return a.Fields.Get(name) }}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}

var columns = []column{
	{"Application ID", func(a domain.Application) string { return a.ID }},
	{"Status", func(a domain.Application) string { return string(a.Status) }},
	field(domain.FieldApplName),
	field(domain.FieldFirm),
	field(domain.FieldDBA),
	field(domain.FieldContactPerson),
	field(domain.FieldMobile),
	{"Address", func(a domain.Application) string { return a.Fields.Address() }},
	field(domain.FieldInstLocality),
	field(domain.FieldCity),
	field(domain.FieldInstPincode),
	field(domain.FieldPAN),
	field(domain.FieldMCC),
	{"Agent Name", func(a domain.Application) string { return a.AgentName }},
	{"Created Date", func(a domain.Application) string { return timestamp(a.CreatedAt) }},
	{"Updated Date", func(a domain.Application) string { return timestamp(a.UpdatedAt) }},
	{"Rejection Reason", func(a domain.Application) string { return a.RejectionReason }},
	{"Discrepancy Items", discrepancies},
}

func discrepancies(a domain.Application) string {
	parts := make([]string, len(a.DiscrepancyItems))
	for i, it := range a.DiscrepancyItems {
		parts[i] = it.Code + ": " + it.Message
	}
	return strings.Join(parts, "; ")
}

// Header returns the fixed column titles of the applications export.
func Header() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// quote wraps s in double quotes, doubling the quotes inside.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeRow(w *bufio.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(quote(c))
	}
}

// Applications writes the header and one line per application. Lines are
// separated by "\n" with no trailing newline, so N records give N+1 lines.
// encoding/csv quotes only when needed, so quoting is done here.
func Applications(dst io.Writer, apps []domain.Application) error {
	w := bufio.NewWriter(dst)
	writeRow(w, Header())

	cells := make([]string, len(columns))
	for _, a := range apps {
		for i, c := range columns {
			cells[i] = c.value(a)
		}
		w.WriteByte('\n')
		writeRow(w, cells)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing applications csv: %w", err)
	}
	return nil
}

// Metrics writes the dashboard summary in three sections: status counts,
// daily activity and the agent leaderboard.
func Metrics(dst io.Writer, m domain.MetricsOverview) error {
	w := csv.NewWriter(dst)
	itoa := strconv.Itoa

	sections := []struct {
		title string
		rows  [][]string
	}{
		{"Application Summary", [][]string{
			{"Metric", "Count"},
			{"Total Applications", itoa(m.Total)},
			{"Draft", itoa(m.Draft)},
			{"Submitted", itoa(m.Submitted)},
			{"Discrepancy", itoa(m.Discrepancy)},
			{"Approved", itoa(m.Approved)},
			{"Rejected", itoa(m.Rejected)},
		}},
		{"Daily Statistics", dailyRows(m.DailyStats)},
		{"Agent Performance", agentRows(m.AgentLeaderboard)},
	}

	for i, s := range sections {
		if i > 0 {
			w.Flush()
			if _, err := io.WriteString(dst, "\n"); err != nil {
				return fmt.Errorf("writing metrics csv: %w", err)
			}
		}
		if err := w.Write([]string{"# " + s.title}); err != nil {
			return fmt.Errorf("writing metrics csv: %w", err)
		}
		if err := w.WriteAll(s.rows); err != nil {
			return fmt.Errorf("writing metrics csv: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func dailyRows(stats []domain.DailyStat) [][]string {
	rows := [][]string{{"Date", "Submissions", "Approvals"}}
	for _, d := range stats {
		rows = append(rows, []string{d.Date, strconv.Itoa(d.Submissions), strconv.Itoa(d.Approvals)})
	}
	return rows
}

func agentRows(stats []domain.AgentStat) [][]string {
	rows := [][]string{{"Agent Name", "Submitted", "Approved", "Discrepancy Rate (%)"}}
	for _, a := range stats {
		rows = append(rows, []string{
			a.AgentName,
			strconv.Itoa(a.Submitted),
			strconv.Itoa(a.Approved),
			strconv.FormatFloat(a.DiscrepancyRate, 'f', -1, 64),
		})
	}
	return rows
}

// ApplicationsFilename names an applications export taken at now.
func ApplicationsFilename(now time.Time) string {
	return "applications_" + now.Format("2006-01-02_15-04-05") + ".csv"
}

// MetricsFilename names a metrics export taken at now.
func MetricsFilename(now time.Time) string {
	return "metrics_" + now.Format("2006-01-02_15-04-05") + ".csv"
}
