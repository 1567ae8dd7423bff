package rollup

import (
	"context"
	"sort"
	"time"

	"github.com/lumeahq/lumea/internal/models"
	"github.com/lumeahq/lumea/internal/storage"
	"golang.org/x/sync/errgroup"
)

const (
	topLinksStatsLimit     = 3
	topLinksAnalyticsLimit = 5
	countryBreakdownLimit  = 8
	recentClicksLimit      = 20
	engagementWindow       = 7 * 24 * time.Hour
)

// Service runs the rollup computations over the raw data gateway. Each
// call reads a fresh snapshot and holds no state afterwards; two
// concurrent calls for the same agency recompute independently.
type Service struct {
	gateway storage.Gateway
	loc     *time.Location

	// now is swapped out in tests for deterministic windows.
	now func() time.Time
}

// NewService creates a rollup service. loc is the timezone used for
// day-bucket boundaries; nil means UTC.
func NewService(gateway storage.Gateway, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		gateway: gateway,
		loc:     loc,
		now:     time.Now,
	}
}

// =============================================
// Tracking stats (agency overview card)
// =============================================

// TrackingStats computes the tracking card: link totals from the cached
// counters, an all-time device breakdown, and the top 3 merged links.
func (s *Service) TrackingStats(ctx context.Context, agencyID string) (*AgencyTrackingStats, error) {
	stats := &AgencyTrackingStats{
		DeviceBreakdown: map[string]int{},
		TopLinks:        []TopLink{},
	}

	links, err := s.gateway.ListLinks(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return stats, nil
	}

	stats.TotalLinks = len(links)
	for _, l := range links {
		stats.TotalClicks += l.ClickCount
		if l.IsActive {
			stats.ActiveLinks++
		}
		if l.LastClickedAt != nil && (stats.LastClickedAt == nil || l.LastClickedAt.After(*stats.LastClickedAt)) {
			stats.LastClickedAt = l.LastClickedAt
		}
	}

	clicks, err := s.gateway.ListClicks(ctx, linkIDs(links), nil, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range CountBy(clicks, deviceLabel) {
		stats.DeviceBreakdown[row.Label] = row.Count
	}

	stats.TopLinks = mergeTopLinks(links, topLinksStatsLimit)
	return stats, nil
}

// =============================================
// Windowed analytics (agency analytics page)
// =============================================

// AnalyticsData computes the analytics page for one reporting window.
func (s *Service) AnalyticsData(ctx context.Context, agencyID string, rng Range) (*AgencyAnalyticsData, error) {
	data := &AgencyAnalyticsData{
		ClicksByTime:     []TimeBucket{},
		CountryBreakdown: []CountryEntry{},
		DeviceBreakdown:  []DeviceEntry{},
		TopLinks:         []TopLink{},
		RecentClicks:     []RecentClick{},
	}

	links, err := s.gateway.ListLinks(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return data, nil
	}

	for _, l := range links {
		if l.IsActive {
			data.ActiveLinks++
		}
	}

	// now is the exclusive upper bound of the window; a click stamped at
	// or after it would count toward the total without fitting a bucket.
	now := s.now()
	since := rng.WindowStart(now, s.loc)
	clicks, err := s.gateway.ListClicks(ctx, linkIDs(links), &since, &now)
	if err != nil {
		return nil, err
	}

	data.TotalClicks = len(clicks)
	data.UniqueIPs = uniqueIPs(clicks)
	data.ClicksByTime = TimeBuckets(now, rng, s.loc, clickTimes(clicks))

	// Clicks without a country stay in the denominator but get no row.
	countries := CountBy(clicks, countryLabel)
	if len(countries) > 0 {
		ranked := TopN(countries, func(c LabelCount) int { return c.Count }, 0)
		top := ranked[0].Label
		data.TopCountry = &top
		for _, row := range ranked[:min(len(ranked), countryBreakdownLimit)] {
			data.CountryBreakdown = append(data.CountryBreakdown, CountryEntry{
				Code:   row.Label,
				Clicks: row.Count,
				Pct:    Percent(row.Count, data.TotalClicks),
			})
		}
	}

	for _, row := range CountBy(clicks, deviceLabel) {
		data.DeviceBreakdown = append(data.DeviceBreakdown, DeviceEntry{
			Device: row.Label,
			Clicks: row.Count,
			Pct:    Percent(row.Count, data.TotalClicks),
		})
	}

	data.TopLinks = mergeTopLinks(links, topLinksAnalyticsLimit)
	data.RecentClicks = recentClicks(links, clicks, recentClicksLimit)
	return data, nil
}

// OpportunityAnalytics computes the per-opportunity analytics view.
// This is the legacy path: device defaulting applies, there is no
// country breakdown.
func (s *Service) OpportunityAnalytics(ctx context.Context, agencyID, opportunityID string, rng Range) (*OpportunityAnalytics, error) {
	data := &OpportunityAnalytics{
		OpportunityID:   opportunityID,
		ClicksByTime:    []TimeBucket{},
		DeviceBreakdown: []DeviceEntry{},
		RecentClicks:    []RecentClick{},
	}

	all, err := s.gateway.ListLinks(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	var links []*models.TrackingLink
	for _, l := range all {
		if l.OpportunityID != nil && *l.OpportunityID == opportunityID {
			links = append(links, l)
		}
	}
	if len(links) == 0 {
		return data, nil
	}
	data.LinksCount = len(links)

	now := s.now()
	since := rng.WindowStart(now, s.loc)
	clicks, err := s.gateway.ListClicks(ctx, linkIDs(links), &since, &now)
	if err != nil {
		return nil, err
	}

	data.TotalClicks = len(clicks)
	data.UniqueIPs = uniqueIPs(clicks)
	data.ClicksByTime = TimeBuckets(now, rng, s.loc, clickTimes(clicks))
	for _, row := range CountBy(clicks, deviceLabel) {
		data.DeviceBreakdown = append(data.DeviceBreakdown, DeviceEntry{
			Device: row.Label,
			Clicks: row.Count,
			Pct:    Percent(row.Count, data.TotalClicks),
		})
	}
	data.RecentClicks = recentClicks(links, clicks, recentClicksLimit)
	return data, nil
}

// =============================================
// Sales pipeline dashboard
// =============================================

// DashboardStats computes the pipeline dashboard. The opportunity and
// project fetches are independent and run concurrently.
func (s *Service) DashboardStats(ctx context.Context, agencyID string) (*DashboardStats, error) {
	var (
		opps     []*models.Opportunity
		projects []*models.Project
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		opps, err = s.gateway.ListOpportunities(ctx, agencyID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.gateway.ListProjects(ctx, agencyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(opps))
	for _, o := range opps {
		statuses = append(statuses, o.Status)
	}

	stats := &DashboardStats{
		PipelineSummary:    SummarizePipeline(statuses),
		TotalProjectsCount: len(projects),
	}
	for _, p := range projects {
		if p.Status == models.ProjectActive {
			stats.ActiveProjectsCount++
		}
	}
	return stats, nil
}

// FavoriteOpportunities lists the opportunities starred on the
// dashboard.
func (s *Service) FavoriteOpportunities(ctx context.Context, agencyID string) ([]*models.Opportunity, error) {
	return s.gateway.ListOpportunities(ctx, agencyID, &storage.OpportunityFilter{FavoritesOnly: true})
}

// =============================================
// Engagement / relances panel
// =============================================

// EngagementStats computes the 7-day follow-up panel.
func (s *Service) EngagementStats(ctx context.Context, agencyID string) (*EngagementResult, error) {
	links, err := s.gateway.ListLinks(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return &EngagementResult{Relances: []RelanceEntry{}}, nil
	}

	now := s.now()
	since := now.Add(-engagementWindow)
	clicks, err := s.gateway.ListClicks(ctx, linkIDs(links), &since, &now)
	if err != nil {
		return nil, err
	}

	result := Engagement(links, clicks)
	return &result, nil
}

// =============================================
// Helpers
// =============================================

func linkIDs(links []*models.TrackingLink) []string {
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ID)
	}
	return ids
}

// deviceLabel buckets a click by device type, counting missing device
// info as "Desktop".
func deviceLabel(c *models.ClickEvent) (string, bool) {
	if c.DeviceType == nil || *c.DeviceType == "" {
		return "Desktop", true
	}
	return *c.DeviceType, true
}

// countryLabel buckets a click by country code; clicks without one are
// excluded from the breakdown.
func countryLabel(c *models.ClickEvent) (string, bool) {
	if c.Country == nil || *c.Country == "" {
		return "", false
	}
	return *c.Country, true
}

func uniqueIPs(clicks []*models.ClickEvent) int {
	seen := make(map[string]bool, len(clicks))
	for _, c := range clicks {
		if c.IPAddress != nil && *c.IPAddress != "" {
			seen[*c.IPAddress] = true
		}
	}
	return len(seen)
}

func clickTimes(clicks []*models.ClickEvent) []time.Time {
	times := make([]time.Time, 0, len(clicks))
	for _, c := range clicks {
		times = append(times, c.ClickedAt)
	}
	return times
}

// mergeTopLinks merges links sharing an opportunity into one group each
// (unlinked links stay separate under their short code) and ranks the
// groups by total cached clicks. Each physical link contributes its
// counter exactly once.
func mergeTopLinks(links []*models.TrackingLink, limit int) []TopLink {
	groups := GroupMerge(links,
		func(l *models.TrackingLink) string {
			if l.OpportunityID != nil && *l.OpportunityID != "" {
				return *l.OpportunityID
			}
			return l.ShortCode
		},
		func(l *models.TrackingLink) TopLink {
			return TopLink{
				OpportunityName: relanceName(l),
				OpportunitySlug: l.OpportunitySlug,
				ClickCount:      l.ClickCount,
				LinksCount:      1,
			}
		},
		func(t TopLink, l *models.TrackingLink) TopLink {
			t.ClickCount += l.ClickCount
			t.LinksCount++
			return t
		},
	)
	return TopN(groups.Values(), func(t TopLink) int { return t.ClickCount }, limit)
}

func recentClicks(links []*models.TrackingLink, clicks []*models.ClickEvent, limit int) []RecentClick {
	byID := make(map[string]*models.TrackingLink, len(links))
	for _, l := range links {
		byID[l.ID] = l
	}

	sorted := make([]*models.ClickEvent, len(clicks))
	copy(sorted, clicks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ClickedAt.After(sorted[j].ClickedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]RecentClick, 0, len(sorted))
	for _, c := range sorted {
		rc := RecentClick{
			ClickedAt: c.ClickedAt,
			Country:   c.Country,
			OSType:    c.OSType,
		}
		label, _ := deviceLabel(c)
		rc.DeviceType = label
		if l, ok := byID[c.LinkID]; ok {
			rc.LinkShortCode = l.ShortCode
			rc.OpportunityName = l.OpportunityName
		}
		out = append(out, rc)
	}
	return out
}
