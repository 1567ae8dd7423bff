// Package tracking is the ingest side of the click pipeline: it
// resolves a short code, records the immutable click event, and bumps
// the link's cached counters before redirecting. It is the only writer
// of click data; the rollup engine only ever reads it.
package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lumeahq/lumea/internal/geo"
	"github.com/lumeahq/lumea/internal/metrics"
	"github.com/lumeahq/lumea/internal/models"
	"github.com/lumeahq/lumea/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrLinkNotFound means the short code resolves to no link.
	ErrLinkNotFound = errors.New("tracking link not found")
	// ErrLinkInactive means the link exists but was deactivated.
	ErrLinkInactive = errors.New("tracking link is inactive")
)

// Service handles click registration and redirect resolution.
type Service struct {
	store   storage.LinkStore
	dedup   Deduper
	geo     geo.Resolver
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a tracking service. geoResolver and deduper may be
// nil; clicks are then recorded without a country and never marked
// unique.
func NewService(store storage.LinkStore, deduper Deduper, geoResolver geo.Resolver, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		dedup:   deduper,
		geo:     geoResolver,
		metrics: m,
		logger:  logger,
	}
}

// ClickParams holds the request-side inputs of one click.
type ClickParams struct {
	ShortCode string
	IP        string
	UserAgent string
	Referer   string
}

// ClickResult holds the outcome of click registration.
type ClickResult struct {
	ClickID     string
	RedirectURL string
}

// RegisterClick records a click event for a short code and returns the
// destination to redirect to. Storage failures after link resolution
// are logged but never block the redirect.
func (s *Service) RegisterClick(ctx context.Context, params *ClickParams) (*ClickResult, error) {
	link, err := s.store.GetLinkByCode(ctx, params.ShortCode)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	if !link.IsActive {
		return nil, ErrLinkInactive
	}

	now := time.Now().UTC()
	click := &models.ClickEvent{
		ID:        uuid.New().String(),
		LinkID:    link.ID,
		ClickedAt: now,
		UserAgent: params.UserAgent,
		Referer:   params.Referer,
	}

	if params.IP != "" {
		ip := params.IP
		click.IPAddress = &ip
		click.Country = s.lookupCountry(ip)
	}

	device, osType := ParseUserAgent(params.UserAgent)
	click.DeviceType = device
	click.OSType = osType

	if s.dedup != nil && params.IP != "" {
		unique, err := s.dedup.FirstToday(ctx, link.ID, params.IP, now)
		if err != nil {
			s.logger.Warn("click dedup failed", zap.Error(err), zap.String("link_id", link.ID))
		} else {
			click.IsUnique = unique
		}
	}

	if err := s.store.SaveClick(ctx, click); err != nil {
		s.logger.Error("failed to save click", zap.Error(err), zap.String("click_id", click.ID))
	}
	if err := s.store.RecordLinkClick(ctx, link.ID, now); err != nil {
		s.logger.Error("failed to bump link counter", zap.Error(err), zap.String("link_id", link.ID))
	}

	if s.metrics != nil {
		device := ""
		if click.DeviceType != nil {
			device = *click.DeviceType
		}
		s.metrics.RecordClick(device, click.IsUnique)
	}

	s.logger.Info("click registered",
		zap.String("click_id", click.ID),
		zap.String("short_code", link.ShortCode),
		zap.Bool("unique", click.IsUnique),
	)

	return &ClickResult{
		ClickID:     click.ID,
		RedirectURL: link.DestinationURL,
	}, nil
}

func (s *Service) lookupCountry(ip string) *string {
	if s.geo == nil {
		return nil
	}

	start := time.Now()
	code, err := s.geo.CountryCode(ip)
	if s.metrics != nil {
		s.metrics.RecordGeoLookup(err == nil && code != "", time.Since(start))
	}
	if err != nil {
		s.logger.Debug("geo lookup failed", zap.Error(err), zap.String("ip", ip))
		return nil
	}
	if code == "" {
		return nil
	}
	return &code
}
