package local

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// statsDays is the length of the daily activity window, ending today.
const statsDays = 7

const dateLayout = "2006-01-02"

// MetricsOverview counts stored applications by status and derives the
// daily activity and agent leaderboard from them.
func (b *Backend) MetricsOverview(ctx context.Context) (domain.MetricsOverview, error) {
	apps, err := b.apps.List(ctx, domain.ListFilter{})
	if err != nil {
		return domain.MetricsOverview{}, err
	}
	return overview(apps, b.now()), nil
}

func overview(apps []domain.Application, now time.Time) domain.MetricsOverview {
	var m domain.MetricsOverview

	days := make(map[string]*domain.DailyStat, statsDays)
	today := now.UTC().Truncate(24 * time.Hour)
	for i := statsDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		m.DailyStats = append(m.DailyStats, domain.DailyStat{Date: date})
	}
	for i := range m.DailyStats {
		days[m.DailyStats[i].Date] = &m.DailyStats[i]
	}

	agents := make(map[string]*agentTally)

	for _, a := range apps {
		m.Total++
		switch a.Status {
		case domain.StatusDraft:
			m.Draft++
		case domain.StatusSubmitted:
			m.Submitted++
		case domain.StatusDiscrepancy:
			m.Discrepancy++
		case domain.StatusApproved:
			m.Approved++
		case domain.StatusRejected:
			m.Rejected++
		}

		if a.Status == domain.StatusDraft {
			continue
		}
		if d, ok := days[a.CreatedAt.UTC().Format(dateLayout)]; ok {
			d.Submissions++
		}
		if a.Status == domain.StatusApproved {
			if d, ok := days[a.UpdatedAt.UTC().Format(dateLayout)]; ok {
				d.Approvals++
			}
		}

		name := a.AgentName
		if name == "" {
			continue
		}
		t, ok := agents[name]
		if !ok {
			t = &agentTally{}
			agents[name] = t
		}
		t.submitted++
		switch a.Status {
		case domain.StatusApproved:
			t.approved++
		case domain.StatusDiscrepancy:
			t.discrepancy++
		}
		if len(a.DiscrepancyItems) > 0 && a.Status != domain.StatusDiscrepancy {
			t.discrepancy++
		}
	}

	for name, t := range agents {
		m.AgentLeaderboard = append(m.AgentLeaderboard, domain.AgentStat{
			AgentName:       name,
			Submitted:       t.submitted,
			Approved:        t.approved,
			DiscrepancyRate: percent(t.discrepancy, t.submitted),
		})
	}
	slices.SortFunc(m.AgentLeaderboard, func(a, b domain.AgentStat) int {
		if c := cmp.Compare(b.Approved, a.Approved); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Submitted, a.Submitted); c != 0 {
			return c
		}
		return cmp.Compare(a.AgentName, b.AgentName)
	})

	return m
}

type agentTally struct {
	submitted, approved, discrepancy int
}

// percent returns part/whole as a percentage rounded to one decimal.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
