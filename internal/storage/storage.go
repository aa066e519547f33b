// Package storage keeps finished game reports so that other processes can
// browse a run after the fact or subscribe to it while it happens.
package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/q3a-report/pkg/game"
)

// ReportStore persists the reports of a run in emission order.
type ReportStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	SaveReport(ctx context.Context, runID uuid.UUID, report *game.Report) error
	ListReports(ctx context.Context, runID uuid.UUID) ([]*game.Report, error)
}

func reportsKey(runID uuid.UUID) string {
	return "reports:" + runID.String()
}

// ChannelName is the pub/sub channel each saved report is published on.
func ChannelName(runID uuid.UUID) string {
	return "game-reports:" + runID.String()
}
