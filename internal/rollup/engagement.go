package rollup

import (
	"sort"
	"time"

	"github.com/lumeahq/lumea/internal/models"
)

// RelanceEntry is one follow-up candidate: an opportunity (or an
// unlinked link standing in for one) with its merged 7-day activity.
type RelanceEntry struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	Clicks7d    int        `json:"clicks_7d"`
	LastClickAt *time.Time `json:"last_click_at"`
}

// EngagementResult is the 7-day engagement/relances panel.
type EngagementResult struct {
	TotalClicks7d     int            `json:"totalClicks7d"`
	UniqueProspects7d int            `json:"uniqueProspects7d"`
	Relances          []RelanceEntry `json:"relances"`
}

// Engagement computes the follow-up list from the agency's links and
// the clicks of the last seven days. Links whose opportunity is won or
// lost are discarded; the rest are merged by opportunity (unlinked
// links stay as singleton groups keyed by short code), summing window
// clicks and keeping the most recent click time across merged links.
// Clicks whose link is absent from the link set are dropped from the
// merged view but still counted in TotalClicks7d. Only groups with at
// least one window click make the list, most recently clicked first.
func Engagement(links []*models.TrackingLink, clicks []*models.ClickEvent) EngagementResult {
	result := EngagementResult{
		TotalClicks7d: len(clicks),
		Relances:      []RelanceEntry{},
	}
	if len(links) == 0 {
		return result
	}

	byLink := make(map[string]struct {
		clicks int
		last   time.Time
	}, len(links))
	known := make(map[string]bool, len(links))
	for _, l := range links {
		known[l.ID] = true
	}
	for _, c := range clicks {
		if !known[c.LinkID] {
			continue
		}
		agg := byLink[c.LinkID]
		agg.clicks++
		if c.ClickedAt.After(agg.last) {
			agg.last = c.ClickedAt
		}
		byLink[c.LinkID] = agg
	}

	candidates := make([]*models.TrackingLink, 0, len(links))
	for _, l := range links {
		if models.IsTerminalStatus(l.OpportunityStatus) {
			continue
		}
		candidates = append(candidates, l)
	}

	groups := GroupMerge(candidates,
		func(l *models.TrackingLink) string {
			if l.OpportunityID != nil && *l.OpportunityID != "" {
				return *l.OpportunityID
			}
			return l.ShortCode
		},
		func(l *models.TrackingLink) RelanceEntry {
			agg := byLink[l.ID]
			e := RelanceEntry{
				ID:       relanceID(l),
				Name:     relanceName(l),
				Slug:     l.OpportunitySlug,
				Status:   l.OpportunityStatus,
				Clicks7d: agg.clicks,
			}
			if agg.clicks > 0 {
				last := agg.last
				e.LastClickAt = &last
			}
			return e
		},
		func(e RelanceEntry, l *models.TrackingLink) RelanceEntry {
			agg := byLink[l.ID]
			e.Clicks7d += agg.clicks
			if agg.clicks > 0 && (e.LastClickAt == nil || agg.last.After(*e.LastClickAt)) {
				last := agg.last
				e.LastClickAt = &last
			}
			return e
		},
	)

	for _, e := range groups.Values() {
		if e.Clicks7d == 0 {
			continue
		}
		result.Relances = append(result.Relances, e)
	}
	sort.SliceStable(result.Relances, func(i, j int) bool {
		return result.Relances[i].LastClickAt.After(*result.Relances[j].LastClickAt)
	})
	result.UniqueProspects7d = len(result.Relances)
	return result
}

func relanceID(l *models.TrackingLink) string {
	if l.OpportunityID != nil && *l.OpportunityID != "" {
		return *l.OpportunityID
	}
	return l.ID
}

func relanceName(l *models.TrackingLink) string {
	if l.OpportunityName != "" {
		return l.OpportunityName
	}
	return l.ShortCode
}
