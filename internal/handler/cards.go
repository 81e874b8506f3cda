package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/models"
	"tg-bounceguard/internal/service"
)

const cardTimeLayout = "2006-01-02 15:04:05 MST"

// cardRef identifies a posted review card
type cardRef struct {
	ChatID    int64
	MessageID int
}

// cardIndex tracks which review cards still have live override controls.
// Membership here is what makes a card actionable; a card missing from the
// index has already been resolved.
type cardIndex struct {
	mu   sync.Mutex
	live map[cardRef]struct{}
}

func newCardIndex() *cardIndex {
	return &cardIndex{live: make(map[cardRef]struct{})}
}

func (c *cardIndex) Add(ref cardRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live[ref] = struct{}{}
}

func (c *cardIndex) Remove(ref cardRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.live, ref)
}

func (c *cardIndex) Contains(ref cardRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live[ref]
	return ok
}

func (c *cardIndex) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// buildCardText renders the review card body from a decision snapshot
func buildCardText(info *models.GroupInfo, snap *models.ActionSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏓 <b>Bounce detected</b> [%s]\n", info.GetLinkedGroupName())
	fmt.Fprintf(&b, "User: %s\n", snap.MemberTag)
	fmt.Fprintf(&b, "Joined: %s\n", snap.JoinTime.Format(cardTimeLayout))
	fmt.Fprintf(&b, "Left: %s\n", snap.LeaveTime.Format(cardTimeLayout))
	fmt.Fprintf(&b, "Time in group: %.1fs\n", snap.ElapsedSeconds)
	fmt.Fprintf(&b, "DM notice: %s\n", snap.DMResult)
	fmt.Fprintf(&b, "Bounce count: %d\n", snap.BounceCount)
	if snap.Permban {
		b.WriteString("Sanction: <b>permanent ban</b>")
	} else {
		fmt.Fprintf(&b, "Sanction: banned for %s, unban at %s",
			models.FormatDurationToken(snap.BanSeconds), snap.UnbanTime.Format(cardTimeLayout))
	}
	return b.String()
}

// buildCardMarkup creates the override buttons for a live card. A card
// for a permanent ban has nothing left to escalate, so only the unban
// override is offered.
func buildCardMarkup(groupID, userID int64, permban bool) *telego.InlineKeyboardMarkup {
	var row []telego.InlineKeyboardButton
	if !permban {
		row = append(row, telego.InlineKeyboardButton{
			Text:         "Make permanent",
			CallbackData: fmt.Sprintf("bounce:permban:%d:%d", groupID, userID),
		})
	}
	row = append(row, telego.InlineKeyboardButton{
		Text:         "Unban now",
		CallbackData: fmt.Sprintf("bounce:unban:%d:%d", groupID, userID),
	})

	return &telego.InlineKeyboardMarkup{
		InlineKeyboard: [][]telego.InlineKeyboardButton{row},
	}
}

// PostCard sends a review card to the group's log chat and records the
// pending action durably so the card survives a restart. Groups without a
// configured log chat skip the card entirely.
func (g *Guard) PostCard(ctx context.Context, info *models.GroupInfo, userID int64, snap *models.ActionSnapshot) error {
	if info.LogChatID == 0 {
		return nil
	}

	text := buildCardText(info, snap)
	markup := buildCardMarkup(info.GroupID, userID, snap.Permban)

	messageID, err := g.platform.SendCard(ctx, info.LogChatID, text, markup)
	if err != nil {
		return fmt.Errorf("failed to post review card: %w", err)
	}

	action := &models.PendingAction{
		GroupID:   info.GroupID,
		UserID:    userID,
		ChatID:    info.LogChatID,
		MessageID: messageID,
	}
	if err := action.EncodeSnapshot(snap); err != nil {
		logger.Errorf("Error encoding action snapshot: %v", err)
	}
	if err := service.InsertPendingAction(action); err != nil {
		logger.Errorf("Error persisting pending action for card %d/%d: %v",
			info.LogChatID, messageID, err)
	}

	g.cards.Add(cardRef{ChatID: info.LogChatID, MessageID: messageID})
	return nil
}

// RestoreCards reloads pending actions from durable storage after a
// restart, re-arming the override controls of every surviving card.
// Records whose snapshot no longer decodes are dropped from the ledger.
func (g *Guard) RestoreCards() (restored, dropped int) {
	actions, err := service.ListPendingActions()
	if err != nil {
		logger.Errorf("Error loading pending actions: %v", err)
		return 0, 0
	}

	for _, action := range actions {
		if _, err := action.DecodeSnapshot(); err != nil {
			logger.Warningf("Dropping pending action for card %d/%d: %v",
				action.ChatID, action.MessageID, err)
			if err := service.RemovePendingAction(action.ChatID, action.MessageID); err != nil {
				logger.Warningf("Error removing malformed pending action: %v", err)
			}
			dropped++
			continue
		}
		g.cards.Add(cardRef{ChatID: action.ChatID, MessageID: action.MessageID})
		restored++
	}

	if restored > 0 || dropped > 0 {
		logger.Infof("Restored %d review cards, dropped %d malformed records", restored, dropped)
	}
	return restored, dropped
}

// resolvedCardText renders the final card body after an override
func resolvedCardText(snap *models.ActionSnapshot, info *models.GroupInfo, resolution, actorTag string, when time.Time) string {
	var b strings.Builder
	if snap != nil && info != nil {
		b.WriteString(buildCardText(info, snap))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "✅ <b>%s</b> by %s at %s", resolution, actorTag, when.Format(cardTimeLayout))
	return b.String()
}
