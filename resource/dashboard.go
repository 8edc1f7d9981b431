package resource

import (
	"context"

	"github.com/goliatone/go-repair-console/entity"
)

// DashboardPath serves the aggregate counts.
const DashboardPath = "/dashboard/stats"

// StatsSource loads the dashboard aggregate.
type StatsSource interface {
	Stats(ctx context.Context) (entity.Stats, error)
}

// Dashboard reads GET /dashboard/stats.
type Dashboard struct {
	client Requester
}

func NewDashboard(client Requester) *Dashboard {
	return &Dashboard{client: client}
}

func (d *Dashboard) Stats(ctx context.Context) (entity.Stats, error) {
	resp, err := d.client.Get(ctx, DashboardPath, nil)
	if err != nil {
		return nil, err
	}
	stats := entity.Stats{}
	if err := resp.Decode(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}
