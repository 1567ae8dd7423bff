package storage

import (
	"context"
	"time"

	"github.com/lumeahq/lumea/internal/models"
)

// =============================================
// RAW DATA GATEWAY (read side)
// =============================================

// OpportunityFilter narrows an opportunity listing.
type OpportunityFilter struct {
	Statuses      []string
	FavoritesOnly bool
}

// Gateway is the read-side contract the rollup engine consumes. Rows
// come back unordered; all ordering and aggregation happens in the
// rollup package. ListClicks depends on a resolved link id list, so
// callers fetch links first. The click window is half-open: since is
// inclusive, until exclusive; either may be nil for an open end. The
// rollup layer passes its captured now as until so that totals and
// time buckets are computed over the same set of clicks.
type Gateway interface {
	ListLinks(ctx context.Context, agencyID string) ([]*models.TrackingLink, error)
	ListClicks(ctx context.Context, linkIDs []string, since, until *time.Time) ([]*models.ClickEvent, error)
	ListOpportunities(ctx context.Context, agencyID string, filter *OpportunityFilter) ([]*models.Opportunity, error)
	ListProjects(ctx context.Context, agencyID string) ([]*models.Project, error)
}

// =============================================
// LINK STORE (ingest side)
// =============================================

// LinkStore is the write-side contract used by click ingest: resolve a
// short code, append the click event, and bump the link's cached
// counter. Click events are append-only.
type LinkStore interface {
	GetLinkByCode(ctx context.Context, shortCode string) (*models.TrackingLink, error)
	SaveClick(ctx context.Context, click *models.ClickEvent) error
	RecordLinkClick(ctx context.Context, linkID string, at time.Time) error
}
