package viewstate

import (
	"context"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
	"github.com/findmyridesa/provider-admin/internal/pkg/hidden"
)

// Source is the part of the dashboard service the loader reads from.
type Source interface {
	FetchRecentProviders(ctx context.Context, limit int64, status string) (dashboard.RecentProviders, error)
	HiddenProviders(ctx context.Context) ([]hidden.Entry, error)
	RecentAuditLog(ctx context.Context, limit int64) ([]models.ActivityLog, error)
}

type serviceLoader struct {
	src Source
}

// NewServiceLoader loads filter rows from the dashboard service.
func NewServiceLoader(src Source) Loader {
	return &serviceLoader{src: src}
}

func (l *serviceLoader) Load(ctx context.Context, f Filter) (Page, error) {
	switch f.Mode {
	case HiddenList:
		entries, err := l.src.HiddenProviders(ctx)
		if err != nil {
			return Page{}, err
		}
		rows := make([]Row, 0, len(entries))
		for i := range entries {
			p := entries[i].Provider
			rows = append(rows, Row{ID: p.ID, Provider: &p, Reasons: entries[i].Reasons})
		}
		return Page{Rows: rows}, nil

	case AuditList:
		logs, err := l.src.RecentAuditLog(ctx, f.Limit)
		if err != nil {
			return Page{}, err
		}
		rows := make([]Row, 0, len(logs))
		for i := range logs {
			entry := logs[i]
			rows = append(rows, Row{ID: entry.ID, Log: &entry})
		}
		return Page{Rows: rows}, nil
	}

	res, err := l.src.FetchRecentProviders(ctx, f.Limit, f.Status)
	if err != nil {
		return Page{}, err
	}
	rows := make([]Row, 0, len(res.Providers))
	for i := range res.Providers {
		p := res.Providers[i]
		rows = append(rows, Row{ID: p.ID, Provider: &p})
	}
	return Page{Rows: rows, Degraded: res.Degraded}, nil
}
