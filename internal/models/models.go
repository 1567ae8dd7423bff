package models

import (
	"time"
)

// ===========================================
// TRACKING LINK
// ===========================================

// TrackingLink is a shareable short URL, optionally attached to an
// opportunity. ClickCount and LastClickedAt are cached counters bumped
// by the ingest path; the rollup engine reads them as-is.
type TrackingLink struct {
	ID             string     `json:"id"`
	AgencyID       string     `json:"agency_id"`
	OpportunityID  *string    `json:"opportunity_id,omitempty"`
	ShortCode      string     `json:"short_code"`
	DestinationURL string     `json:"destination_url"`
	Campaign       *string    `json:"campaign,omitempty"`
	ClickCount     int        `json:"click_count"`
	IsActive       bool       `json:"is_active"`
	LastClickedAt  *time.Time `json:"last_clicked_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Denormalized opportunity fields, populated by the gateway when
	// the link row is joined with its opportunity.
	OpportunityName   string `json:"opportunity_name,omitempty"`
	OpportunitySlug   string `json:"opportunity_slug,omitempty"`
	OpportunityStatus string `json:"opportunity_status,omitempty"`
}

// ===========================================
// CLICK EVENT
// ===========================================

// ClickEvent is one immutable record of a tracking link being followed.
// Events are append-only; nothing in this codebase updates or deletes
// them after ingest.
type ClickEvent struct {
	ID        string    `json:"id"`
	LinkID    string    `json:"link_id"`
	ClickedAt time.Time `json:"clicked_at"`

	IPAddress  *string `json:"ip_address,omitempty"`
	Country    *string `json:"country,omitempty"`
	DeviceType *string `json:"device_type,omitempty"`
	OSType     *string `json:"os_type,omitempty"`
	UserAgent  string  `json:"user_agent,omitempty"`
	Referer    string  `json:"referer,omitempty"`

	// IsUnique marks the first click from an IP on this link within a
	// calendar day (Redis dedup on the ingest path).
	IsUnique bool `json:"is_unique"`
}

// ===========================================
// OPPORTUNITY
// ===========================================

// Opportunity statuses form an ordered sales pipeline. Won and Lost are
// terminal: opportunities in those states leave the pipeline and the
// engagement views.
const (
	StatusToDo          = "to_do"
	StatusFirstContact  = "first_contact"
	StatusSecondContact = "second_contact"
	StatusProposalSent  = "proposal_sent"
	StatusNegotiation   = "negotiation"
	StatusWon           = "won"
	StatusLost          = "lost"
)

// PipelineOrder lists the non-terminal statuses in pipeline order.
var PipelineOrder = []string{
	StatusToDo,
	StatusFirstContact,
	StatusSecondContact,
	StatusProposalSent,
	StatusNegotiation,
}

// IsTerminalStatus reports whether an opportunity status is won or lost.
func IsTerminalStatus(status string) bool {
	return status == StatusWon || status == StatusLost
}

type Opportunity struct {
	ID         string    `json:"id"`
	AgencyID   string    `json:"agency_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Status     string    `json:"status"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
}

// ===========================================
// PROJECT
// ===========================================

const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

type Project struct {
	ID        string    `json:"id"`
	AgencyID  string    `json:"agency_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
