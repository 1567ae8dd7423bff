package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumeahq/lumea/internal/models"
)

// PostgresGateway implements Gateway and LinkStore using PostgreSQL.
type PostgresGateway struct {
	pool *pgxpool.Pool
}

func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	return &PostgresGateway{pool: pool}
}

// =============================================
// Links
// =============================================

const linkColumns = `
	l.id, l.agency_id, l.opportunity_id, l.short_code, l.destination_url,
	l.campaign, l.click_count, l.is_active, l.last_clicked_at, l.created_at,
	COALESCE(o.name, ''), COALESCE(o.slug, ''), COALESCE(o.status, '')`

func (g *PostgresGateway) ListLinks(ctx context.Context, agencyID string) ([]*models.TrackingLink, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT `+linkColumns+`
		FROM tracking_links l
		LEFT JOIN opportunities o ON o.id = l.opportunity_id
		WHERE l.agency_id = $1
	`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []*models.TrackingLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (g *PostgresGateway) GetLinkByCode(ctx context.Context, shortCode string) (*models.TrackingLink, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT `+linkColumns+`
		FROM tracking_links l
		LEFT JOIN opportunities o ON o.id = l.opportunity_id
		WHERE l.short_code = $1
	`, shortCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanLink(rows)
}

func scanLink(rows pgx.Rows) (*models.TrackingLink, error) {
	var l models.TrackingLink
	if err := rows.Scan(
		&l.ID, &l.AgencyID, &l.OpportunityID, &l.ShortCode, &l.DestinationURL,
		&l.Campaign, &l.ClickCount, &l.IsActive, &l.LastClickedAt, &l.CreatedAt,
		&l.OpportunityName, &l.OpportunitySlug, &l.OpportunityStatus,
	); err != nil {
		return nil, fmt.Errorf("failed to scan link: %w", err)
	}
	return &l, nil
}

// =============================================
// Clicks
// =============================================

func (g *PostgresGateway) ListClicks(ctx context.Context, linkIDs []string, since, until *time.Time) ([]*models.ClickEvent, error) {
	if len(linkIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, link_id, clicked_at, ip_address, country, device_type,
		       os_type, COALESCE(user_agent, ''), COALESCE(referer, ''), is_unique
		FROM click_events
		WHERE link_id = ANY($1)`
	args := []interface{}{linkIDs}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(` AND clicked_at >= $%d`, len(args))
	}
	if until != nil {
		args = append(args, *until)
		query += fmt.Sprintf(` AND clicked_at < $%d`, len(args))
	}

	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	var clicks []*models.ClickEvent
	for rows.Next() {
		var c models.ClickEvent
		if err := rows.Scan(
			&c.ID, &c.LinkID, &c.ClickedAt, &c.IPAddress, &c.Country,
			&c.DeviceType, &c.OSType, &c.UserAgent, &c.Referer, &c.IsUnique,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, &c)
	}
	return clicks, rows.Err()
}

func (g *PostgresGateway) SaveClick(ctx context.Context, click *models.ClickEvent) error {
	if click == nil {
		return nil
	}

	_, err := g.pool.Exec(ctx, `
		INSERT INTO click_events (
			id, link_id, clicked_at, ip_address, country,
			device_type, os_type, user_agent, referer, is_unique
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		click.ID, click.LinkID, click.ClickedAt, click.IPAddress, click.Country,
		click.DeviceType, click.OSType, nullIfEmpty(click.UserAgent),
		nullIfEmpty(click.Referer), click.IsUnique,
	)
	if err != nil {
		return fmt.Errorf("failed to save click: %w", err)
	}
	return nil
}

func (g *PostgresGateway) RecordLinkClick(ctx context.Context, linkID string, at time.Time) error {
	_, err := g.pool.Exec(ctx, `
		UPDATE tracking_links
		SET click_count = click_count + 1,
		    last_clicked_at = GREATEST(COALESCE(last_clicked_at, $2), $2)
		WHERE id = $1
	`, linkID, at)
	if err != nil {
		return fmt.Errorf("failed to record link click: %w", err)
	}
	return nil
}

// =============================================
// Opportunities
// =============================================

func (g *PostgresGateway) ListOpportunities(ctx context.Context, agencyID string, filter *OpportunityFilter) ([]*models.Opportunity, error) {
	query := `
		SELECT id, agency_id, name, slug, status, is_favorite, created_at
		FROM opportunities
		WHERE agency_id = $1`
	args := []interface{}{agencyID}
	if filter != nil {
		if len(filter.Statuses) > 0 {
			query += fmt.Sprintf(` AND status = ANY($%d)`, len(args)+1)
			args = append(args, filter.Statuses)
		}
		if filter.FavoritesOnly {
			query += ` AND is_favorite`
		}
	}

	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []*models.Opportunity
	for rows.Next() {
		var o models.Opportunity
		if err := rows.Scan(&o.ID, &o.AgencyID, &o.Name, &o.Slug, &o.Status, &o.IsFavorite, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opps = append(opps, &o)
	}
	return opps, rows.Err()
}

// =============================================
// Projects
// =============================================

func (g *PostgresGateway) ListProjects(ctx context.Context, agencyID string) ([]*models.Project, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT id, agency_id, name, status, created_at
		FROM projects
		WHERE agency_id = $1
	`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.AgencyID, &p.Name, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
