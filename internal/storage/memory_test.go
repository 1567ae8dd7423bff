package storage

import (
	"context"
	"testing"
	"time"

	"github.com/lumeahq/lumea/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryGatewayListLinksFiltersByAgency(t *testing.T) {
	gw := NewInMemoryGateway()
	gw.AddLink(&models.TrackingLink{ID: "l1", AgencyID: "ag-1", ShortCode: "a"})
	gw.AddLink(&models.TrackingLink{ID: "l2", AgencyID: "ag-2", ShortCode: "b"})
	gw.AddLink(&models.TrackingLink{ID: "l3", AgencyID: "ag-1", ShortCode: "c"})

	links, err := gw.ListLinks(context.Background(), "ag-1")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "l1", links[0].ID)
	assert.Equal(t, "l3", links[1].ID)
}

func TestInMemoryGatewayListClicksSinceFilter(t *testing.T) {
	gw := NewInMemoryGateway()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, gw.SaveClick(ctx, &models.ClickEvent{ID: "c1", LinkID: "l1", ClickedAt: base}))
	require.NoError(t, gw.SaveClick(ctx, &models.ClickEvent{ID: "c2", LinkID: "l1", ClickedAt: base.Add(-48 * time.Hour)}))
	require.NoError(t, gw.SaveClick(ctx, &models.ClickEvent{ID: "c3", LinkID: "l2", ClickedAt: base}))

	since := base.Add(-time.Hour)
	clicks, err := gw.ListClicks(ctx, []string{"l1"}, &since, nil)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "c1", clicks[0].ID)

	clicks, err = gw.ListClicks(ctx, []string{"l1"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, clicks, 2)
}

func TestInMemoryGatewayListClicksUntilIsExclusive(t *testing.T) {
	gw := NewInMemoryGateway()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, gw.SaveClick(ctx, &models.ClickEvent{ID: "c1", LinkID: "l1", ClickedAt: base.Add(-time.Minute)}))
	require.NoError(t, gw.SaveClick(ctx, &models.ClickEvent{ID: "c2", LinkID: "l1", ClickedAt: base}))
	require.NoError(t, gw.SaveClick(ctx, &models.ClickEvent{ID: "c3", LinkID: "l1", ClickedAt: base.Add(time.Minute)}))

	clicks, err := gw.ListClicks(ctx, []string{"l1"}, nil, &base)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "c1", clicks[0].ID)
}

func TestInMemoryGatewayListOpportunitiesFilter(t *testing.T) {
	gw := NewInMemoryGateway()
	ctx := context.Background()

	gw.AddOpportunity(&models.Opportunity{ID: "o1", AgencyID: "ag-1", Status: models.StatusToDo, IsFavorite: true})
	gw.AddOpportunity(&models.Opportunity{ID: "o2", AgencyID: "ag-1", Status: models.StatusWon})
	gw.AddOpportunity(&models.Opportunity{ID: "o3", AgencyID: "ag-2", Status: models.StatusToDo})

	all, err := gw.ListOpportunities(ctx, "ag-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	favs, err := gw.ListOpportunities(ctx, "ag-1", &OpportunityFilter{FavoritesOnly: true})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "o1", favs[0].ID)

	won, err := gw.ListOpportunities(ctx, "ag-1", &OpportunityFilter{Statuses: []string{models.StatusWon}})
	require.NoError(t, err)
	require.Len(t, won, 1)
	assert.Equal(t, "o2", won[0].ID)
}

func TestInMemoryGatewayRecordLinkClick(t *testing.T) {
	gw := NewInMemoryGateway()
	ctx := context.Background()

	gw.AddLink(&models.TrackingLink{ID: "l1", AgencyID: "ag-1", ShortCode: "a"})

	first := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, gw.RecordLinkClick(ctx, "l1", first))
	// An earlier timestamp must not move LastClickedAt backwards.
	require.NoError(t, gw.RecordLinkClick(ctx, "l1", first.Add(-time.Hour)))

	link, err := gw.GetLinkByCode(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, link.ClickCount)
	require.NotNil(t, link.LastClickedAt)
	assert.Equal(t, first, *link.LastClickedAt)
}

func TestInMemoryGatewayGetLinkByCodeMissing(t *testing.T) {
	gw := NewInMemoryGateway()

	link, err := gw.GetLinkByCode(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, link)
}

func TestInMemoryGatewayReturnsCopies(t *testing.T) {
	gw := NewInMemoryGateway()
	gw.AddLink(&models.TrackingLink{ID: "l1", AgencyID: "ag-1", ShortCode: "a"})

	links, err := gw.ListLinks(context.Background(), "ag-1")
	require.NoError(t, err)
	links[0].ShortCode = "mutated"

	again, err := gw.ListLinks(context.Background(), "ag-1")
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].ShortCode)
}
