package app

import (
	"slices"
	"strings"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// applyFilter narrows apps by the criteria the backend does not evaluate
// (date range, agent, city) and then pages the result.
func applyFilter(apps []domain.Application, f domain.ListFilter) []domain.Application {
	out := make([]domain.Application, 0, len(apps))
	for _, a := range apps {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
			continue
		}
		if !f.DateFrom.IsZero() && a.CreatedAt.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && a.CreatedAt.After(f.DateTo) {
			continue
		}
		if f.Agent != "" && !containsFold(a.AgentName, f.Agent) {
			continue
		}
		if f.City != "" && !strings.EqualFold(strings.TrimSpace(a.Fields.Get(domain.FieldCity)), strings.TrimSpace(f.City)) {
			continue
		}
		out = append(out, a)
	}

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []domain.Application{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
