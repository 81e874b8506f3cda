package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/models"
	"tg-bounceguard/internal/service"
)

// HandleCallbackQuery processes the override buttons on review cards.
// Each card resolves at most once: the first authorized press wins and
// every later press is answered as already handled.
func (g *Guard) HandleCallbackQuery(ctx context.Context, query telego.CallbackQuery) error {
	if !strings.HasPrefix(query.Data, "bounce:") {
		return nil
	}

	op, groupID, userID, err := parseCardCallback(query.Data)
	if err != nil {
		logger.Warningf("Invalid callback data: %s", query.Data)
		return nil
	}
	if op != "permban" && op != "unban" {
		logger.Warningf("Unknown card operation: %s", op)
		return nil
	}

	if query.Message == nil {
		return g.platform.AnswerCallback(ctx, query.ID, "Card message is no longer available.", true)
	}
	ref := cardRef{
		ChatID:    query.Message.GetChat().ID,
		MessageID: query.Message.GetMessageID(),
	}

	if !g.isAuthorized(ctx, groupID, query.From.ID) {
		return g.platform.AnswerCallback(ctx, query.ID,
			"You don't have permission to resolve this card.", true)
	}

	unlock := g.cardLocks.Lock(fmt.Sprintf("card:%d:%d", ref.ChatID, ref.MessageID))
	defer unlock()

	if !g.cards.Contains(ref) {
		return g.platform.AnswerCallback(ctx, query.ID, "This card was already handled.", false)
	}

	var resolution string
	switch op {
	case "permban":
		err = g.platform.Ban(ctx, groupID, userID, fmt.Sprintf("manual override by user %d", query.From.ID))
		resolution = "Ban made permanent"
	case "unban":
		err = g.platform.Unban(ctx, groupID, userID)
		if errors.Is(err, ErrNotBanned) {
			// Already lifted elsewhere, the override still resolves
			err = nil
		}
		resolution = "User unbanned"
	}
	if err != nil {
		logger.Errorf("Error resolving card %d/%d: %v", ref.ChatID, ref.MessageID, err)
		return g.platform.AnswerCallback(ctx, query.ID,
			fmt.Sprintf("Action failed: %v", err), true)
	}

	// Either way the reconciler has nothing left to reverse
	if err := service.RemoveTempban(groupID, userID); err != nil {
		logger.Warningf("Error removing tempban for user %d in group %d: %v", userID, groupID, err)
	}

	// The platform action succeeded; retire the card before redrawing so a
	// crash between the two cannot re-arm it
	g.cards.Remove(ref)
	snap := g.takePendingSnapshot(ref)

	actorTag := GetLinkedUserName(query.From)
	info := service.GetGroupInfo(g.bot, groupID, false)
	text := resolvedCardText(snap, info, resolution, actorTag, time.Now())
	if err := g.platform.EditCard(ctx, ref.ChatID, ref.MessageID, text, nil); err != nil {
		// The ledger is authoritative, a stale card body is cosmetic
		logger.Warningf("Error editing resolved card %d/%d: %v", ref.ChatID, ref.MessageID, err)
	}

	return g.platform.AnswerCallback(ctx, query.ID, resolution+".", false)
}

// isAuthorized reports whether a user may resolve cards for a group
func (g *Guard) isAuthorized(ctx context.Context, groupID, userID int64) bool {
	if g.ownerID != 0 && userID == g.ownerID {
		return true
	}
	isAdmin, err := g.platform.IsAdmin(ctx, groupID, userID)
	if err != nil {
		logger.Warningf("Error checking admin status for user %d in group %d: %v", userID, groupID, err)
		return false
	}
	return isAdmin
}

// takePendingSnapshot removes the durable pending action for a card and
// returns its snapshot for the final redraw, nil when unavailable
func (g *Guard) takePendingSnapshot(ref cardRef) *models.ActionSnapshot {
	action, err := service.GetPendingAction(ref.ChatID, ref.MessageID)
	if err != nil {
		logger.Warningf("Error loading pending action for card %d/%d: %v", ref.ChatID, ref.MessageID, err)
	}
	if err := service.RemovePendingAction(ref.ChatID, ref.MessageID); err != nil {
		logger.Warningf("Error removing pending action for card %d/%d: %v", ref.ChatID, ref.MessageID, err)
	}
	if action == nil {
		return nil
	}
	snap, err := action.DecodeSnapshot()
	if err != nil {
		logger.Warningf("Error decoding snapshot for card %d/%d: %v", ref.ChatID, ref.MessageID, err)
		return nil
	}
	return snap
}
