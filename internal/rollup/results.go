package rollup

import (
	"time"
)

// TopLink is one merged group of tracking links sharing an opportunity,
// ranked by total clicks. Unlinked links appear under their short code.
type TopLink struct {
	OpportunityName string `json:"opportunity_name"`
	OpportunitySlug string `json:"opportunity_slug"`
	ClickCount      int    `json:"click_count"`
	LinksCount      int    `json:"links_count"`
}

// AgencyTrackingStats is the tracking card on the agency overview.
type AgencyTrackingStats struct {
	TotalLinks      int            `json:"totalLinks"`
	TotalClicks     int            `json:"totalClicks"`
	ActiveLinks     int            `json:"activeLinks"`
	LastClickedAt   *time.Time     `json:"lastClickedAt"`
	DeviceBreakdown map[string]int `json:"deviceBreakdown"`
	TopLinks        []TopLink      `json:"topLinks"`
}

// CountryEntry is one row of the country breakdown.
type CountryEntry struct {
	Code   string `json:"code"`
	Clicks int    `json:"clicks"`
	Pct    int    `json:"pct"`
}

// DeviceEntry is one row of the device breakdown.
type DeviceEntry struct {
	Device string `json:"device"`
	Clicks int    `json:"clicks"`
	Pct    int    `json:"pct"`
}

// RecentClick is one row of the live click feed.
type RecentClick struct {
	ClickedAt       time.Time `json:"clicked_at"`
	Country         *string   `json:"country"`
	DeviceType      string    `json:"device_type"`
	OSType          *string   `json:"os_type"`
	LinkShortCode   string    `json:"link_short_code"`
	OpportunityName string    `json:"opportunity_name,omitempty"`
}

// AgencyAnalyticsData is the full analytics page for one reporting
// window. All click-derived figures cover the window only; totalClicks
// is the denominator for every breakdown percentage.
type AgencyAnalyticsData struct {
	TotalClicks      int            `json:"totalClicks"`
	UniqueIPs        int            `json:"uniqueIPs"`
	ActiveLinks      int            `json:"activeLinks"`
	TopCountry       *string        `json:"topCountry"`
	ClicksByTime     []TimeBucket   `json:"clicksByTime"`
	CountryBreakdown []CountryEntry `json:"countryBreakdown"`
	DeviceBreakdown  []DeviceEntry  `json:"deviceBreakdown"`
	TopLinks         []TopLink      `json:"topLinks"`
	RecentClicks     []RecentClick  `json:"recentClicks"`
}

// OpportunityAnalytics is the per-opportunity analytics view.
type OpportunityAnalytics struct {
	OpportunityID   string        `json:"opportunity_id"`
	TotalClicks     int           `json:"totalClicks"`
	UniqueIPs       int           `json:"uniqueIPs"`
	LinksCount      int           `json:"links_count"`
	ClicksByTime    []TimeBucket  `json:"clicksByTime"`
	DeviceBreakdown []DeviceEntry `json:"deviceBreakdown"`
	RecentClicks    []RecentClick `json:"recentClicks"`
}

// DashboardStats is the sales pipeline dashboard.
type DashboardStats struct {
	PipelineSummary
	ActiveProjectsCount int `json:"activeProjectsCount"`
	TotalProjectsCount  int `json:"totalProjectsCount"`
}
