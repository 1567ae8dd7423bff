package storage

import (
	"context"
	"sync"
	"time"

	"github.com/lumeahq/lumea/internal/models"
)

// InMemoryGateway provides in-memory storage implementing Gateway and
// LinkStore. It backs tests and the degraded mode used when PostgreSQL
// is unavailable at startup.
type InMemoryGateway struct {
	mu            sync.RWMutex
	links         map[string]*models.TrackingLink
	clicks        []*models.ClickEvent
	opportunities map[string]*models.Opportunity
	projects      map[string]*models.Project

	linkOrder []string
	oppOrder  []string
	projOrder []string
}

// NewInMemoryGateway creates an empty in-memory gateway.
func NewInMemoryGateway() *InMemoryGateway {
	return &InMemoryGateway{
		links:         make(map[string]*models.TrackingLink),
		opportunities: make(map[string]*models.Opportunity),
		projects:      make(map[string]*models.Project),
	}
}

// =============================================
// Seeding
// =============================================

func (s *InMemoryGateway) AddLink(l *models.TrackingLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[l.ID]; !ok {
		s.linkOrder = append(s.linkOrder, l.ID)
	}
	s.links[l.ID] = l
}

func (s *InMemoryGateway) AddOpportunity(o *models.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.opportunities[o.ID]; !ok {
		s.oppOrder = append(s.oppOrder, o.ID)
	}
	s.opportunities[o.ID] = o
}

func (s *InMemoryGateway) AddProject(p *models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		s.projOrder = append(s.projOrder, p.ID)
	}
	s.projects[p.ID] = p
}

// =============================================
// Gateway
// =============================================

func (s *InMemoryGateway) ListLinks(ctx context.Context, agencyID string) ([]*models.TrackingLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []*models.TrackingLink
	for _, id := range s.linkOrder {
		l := s.links[id]
		if l.AgencyID == agencyID {
			cp := *l
			links = append(links, &cp)
		}
	}
	return links, nil
}

func (s *InMemoryGateway) ListClicks(ctx context.Context, linkIDs []string, since, until *time.Time) ([]*models.ClickEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(linkIDs))
	for _, id := range linkIDs {
		wanted[id] = true
	}

	var clicks []*models.ClickEvent
	for _, c := range s.clicks {
		if !wanted[c.LinkID] {
			continue
		}
		if since != nil && c.ClickedAt.Before(*since) {
			continue
		}
		if until != nil && !c.ClickedAt.Before(*until) {
			continue
		}
		cp := *c
		clicks = append(clicks, &cp)
	}
	return clicks, nil
}

func (s *InMemoryGateway) ListOpportunities(ctx context.Context, agencyID string, filter *OpportunityFilter) ([]*models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var opps []*models.Opportunity
	for _, id := range s.oppOrder {
		o := s.opportunities[id]
		if o.AgencyID != agencyID {
			continue
		}
		if filter != nil {
			if filter.FavoritesOnly && !o.IsFavorite {
				continue
			}
			if len(filter.Statuses) > 0 && !containsString(filter.Statuses, o.Status) {
				continue
			}
		}
		cp := *o
		opps = append(opps, &cp)
	}
	return opps, nil
}

func (s *InMemoryGateway) ListProjects(ctx context.Context, agencyID string) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var projects []*models.Project
	for _, id := range s.projOrder {
		p := s.projects[id]
		if p.AgencyID == agencyID {
			cp := *p
			projects = append(projects, &cp)
		}
	}
	return projects, nil
}

// =============================================
// LinkStore
// =============================================

func (s *InMemoryGateway) GetLinkByCode(ctx context.Context, shortCode string) (*models.TrackingLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.linkOrder {
		if s.links[id].ShortCode == shortCode {
			cp := *s.links[id]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryGateway) SaveClick(ctx context.Context, click *models.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *click
	s.clicks = append(s.clicks, &cp)
	return nil
}

func (s *InMemoryGateway) RecordLinkClick(ctx context.Context, linkID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[linkID]
	if !ok {
		return nil
	}
	l.ClickCount++
	if l.LastClickedAt == nil || at.After(*l.LastClickedAt) {
		t := at
		l.LastClickedAt = &t
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
