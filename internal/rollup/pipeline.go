package rollup

import (
	"github.com/lumeahq/lumea/internal/models"
)

// PipelineRow is one non-terminal status and its opportunity count.
type PipelineRow struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// PipelineSummary derives the sales-funnel numbers shown on the
// dashboard from raw opportunity statuses.
type PipelineSummary struct {
	ConversionRate *int          `json:"conversionRate"`
	WonCount       int           `json:"wonCount"`
	LostCount      int           `json:"lostCount"`
	ClosedCount    int           `json:"closedCount"`
	ActiveOpps     int           `json:"activeOpps"`
	PipelineRows   []PipelineRow `json:"pipelineRows"`
	PipelineTotal  int           `json:"pipelineTotal"`
}

// SummarizePipeline computes funnel counts and the conversion rate from
// a list of opportunity statuses. The conversion rate is won over
// closed (won+lost), rounded; it is nil, not zero, when no opportunity
// has reached a terminal status. Statuses with zero occurrences emit no
// row, and won/lost never appear as rows. Unknown status strings are
// opaque: they count as active and get their own row.
func SummarizePipeline(statuses []string) PipelineSummary {
	var s PipelineSummary

	active := make([]string, 0, len(statuses))
	for _, st := range statuses {
		switch st {
		case models.StatusWon:
			s.WonCount++
		case models.StatusLost:
			s.LostCount++
		default:
			active = append(active, st)
		}
	}

	s.ClosedCount = s.WonCount + s.LostCount
	s.ActiveOpps = len(active)
	if s.ClosedCount > 0 {
		rate := Percent(s.WonCount, s.ClosedCount)
		s.ConversionRate = &rate
	}

	counts := CountBy(active, func(st string) (string, bool) { return st, true })
	byStatus := make(map[string]int, len(counts))
	for _, c := range counts {
		byStatus[c.Label] = c.Count
	}

	// Known statuses come out in pipeline order, anything else in
	// first-seen order after them.
	s.PipelineRows = make([]PipelineRow, 0, len(counts))
	for _, st := range models.PipelineOrder {
		if n, ok := byStatus[st]; ok {
			s.PipelineRows = append(s.PipelineRows, PipelineRow{Status: st, Count: n})
			delete(byStatus, st)
		}
	}
	for _, c := range counts {
		if n, ok := byStatus[c.Label]; ok {
			s.PipelineRows = append(s.PipelineRows, PipelineRow{Status: c.Label, Count: n})
		}
	}

	for _, row := range s.PipelineRows {
		s.PipelineTotal += row.Count
	}
	return s
}
