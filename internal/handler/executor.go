package handler

import (
	"context"
	"time"

	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/models"
	"tg-bounceguard/internal/service"
)

// ExecutePermanent bans a user with no scheduled reversal. Any pending
// tempban record is removed so the reconciler cannot undo the ban later.
func (g *Guard) ExecutePermanent(ctx context.Context, groupID, userID int64, reason string) error {
	if err := g.platform.Ban(ctx, groupID, userID, reason); err != nil {
		return err
	}
	if err := service.RemoveTempban(groupID, userID); err != nil {
		logger.Warningf("Error removing superseded tempban for user %d in group %d: %v",
			userID, groupID, err)
	}
	return nil
}

// ExecuteTemporary applies a time-bounded ban. A registered moderation
// delegate gets first refusal; when it handles the ban and schedules its
// own reversal no local record is kept. Otherwise the ban is issued
// directly and the reconciler owns the reversal.
func (g *Guard) ExecuteTemporary(ctx context.Context, groupID, userID int64, banSeconds int, expiresAt time.Time, reason string) error {
	req := TempbanRequest{
		GroupID:   groupID,
		UserID:    userID,
		Duration:  time.Duration(banSeconds) * time.Second,
		ExpiresAt: expiresAt,
		Reason:    reason,
	}

	if d := g.delegates.Lookup("moderation"); d != nil {
		handled, err := ProbeTempban(ctx, d, req)
		if err != nil {
			logger.Warningf("Tempban delegate failed for user %d in group %d, banning directly: %v",
				userID, groupID, err)
		} else if handled {
			if d.Persistent() {
				logger.Infof("Tempban for user %d in group %d delegated with persistent reversal",
					userID, groupID)
				return nil
			}
			return service.AddTempban(&models.TempbanRecord{
				GroupID:   groupID,
				UserID:    userID,
				ExpiresAt: expiresAt,
				Reason:    reason,
			})
		}
	}

	if err := g.platform.Ban(ctx, groupID, userID, reason); err != nil {
		return err
	}
	return service.AddTempban(&models.TempbanRecord{
		GroupID:   groupID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		Reason:    reason,
	})
}
