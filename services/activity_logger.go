package services

import (
	"context"

	"nfl-pickem/interfaces"
	"nfl-pickem/logging"
	"nfl-pickem/models"
)

// ActivityLogger writes audit records. A failed audit write is logged and never fails the
// operation that produced it.
type ActivityLogger struct {
	repo   interfaces.ActivityRepository
	logger *logging.Logger
}

// NewActivityLogger creates a new activity logger
func NewActivityLogger(repo interfaces.ActivityRepository) *ActivityLogger {
	return &ActivityLogger{
		repo:   repo,
		logger: logging.WithPrefix("Activity"),
	}
}

// Record appends an activity
func (a *ActivityLogger) Record(ctx context.Context, activity *models.Activity) {
	if a == nil || activity == nil {
		return
	}
	if err := a.repo.Create(ctx, activity); err != nil {
		a.logger.Errorf("Failed to record %s activity: %v", activity.Type, err)
		return
	}
	a.logger.Debugf("%s: %s", activity.Action, activity.Details)
}

// Recent returns the activity feed, newest first
func (a *ActivityLogger) Recent(ctx context.Context, filter models.ActivityFilter) ([]*models.Activity, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return a.repo.List(ctx, filter)
}
