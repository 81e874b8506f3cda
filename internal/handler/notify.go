package handler

import (
	"context"
	"fmt"
	"strings"

	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/models"
)

// sendWelcomeDM greets a newly joined member in private. Failures are
// expected; many users never opened a conversation with the bot.
func (g *Guard) sendWelcomeDM(ctx context.Context, info *models.GroupInfo, ev MemberEvent) {
	text := fmt.Sprintf("👋 Welcome to %s!\n"+
		"Please note: leaving within %d seconds of joining counts as a bounce "+
		"and leads to a temporary ban.", info.GetLinkedGroupName(), info.WindowSeconds)

	if err := g.platform.SendDirectMessage(ctx, ev.UserID, text); err != nil {
		logger.Debugf("Error sending welcome DM to user %d: %v", ev.UserID, err)
	}
}

// sendSanctionDM tells the departing member what is about to happen and
// how to appeal. The returned string is recorded on the review card.
func (g *Guard) sendSanctionDM(ctx context.Context, info *models.GroupInfo, ev MemberEvent, permban bool, banSeconds int) string {
	var b strings.Builder
	groupName := info.GetLinkedGroupName()
	if groupName == "" {
		groupName = fmt.Sprintf("group %d", info.GroupID)
	}

	if permban {
		fmt.Fprintf(&b, "🚫 You have been permanently banned from %s for repeatedly "+
			"joining and leaving within a short time.", groupName)
	} else {
		fmt.Fprintf(&b, "⛔ You have been banned from %s for %s because you left "+
			"shortly after joining.", groupName, models.FormatDurationToken(banSeconds))
	}

	if contacts := g.buildContactsLine(info); contacts != "" {
		b.WriteString("\n\nIf you believe this is a mistake, contact: ")
		b.WriteString(contacts)
	}

	if !permban {
		if link, err := g.platform.CreateInviteLink(ctx, info.GroupID); err == nil && link != "" {
			fmt.Fprintf(&b, "\n\nOnce the ban expires you can rejoin here: %s", link)
		} else if err != nil {
			logger.Debugf("Error creating invite link for group %d: %v", info.GroupID, err)
		}
	}

	if err := g.platform.SendDirectMessage(ctx, ev.UserID, b.String()); err != nil {
		logger.Debugf("Error sending sanction DM to user %d: %v", ev.UserID, err)
		return fmt.Sprintf("failed: %v", err)
	}
	return "sent"
}

// buildContactsLine renders the group's appeal contacts, truncated at the
// configured maximum with a remainder marker
func (g *Guard) buildContactsLine(info *models.GroupInfo) string {
	ids := parseContactIDs(info.ContactIDs)
	if len(ids) == 0 {
		return ""
	}

	max := info.MaxContacts
	if max <= 0 {
		max = len(ids)
	}

	shown := ids
	remainder := 0
	if len(ids) > max {
		shown = ids[:max]
		remainder = len(ids) - max
	}

	parts := make([]string, 0, len(shown)+1)
	for _, id := range shown {
		parts = append(parts, fmt.Sprintf("<a href=\"tg://user?id=%d\">%d</a>", id, id))
	}
	if remainder > 0 {
		parts = append(parts, fmt.Sprintf("+%d more", remainder))
	}
	return strings.Join(parts, ", ")
}

// notifySanctionFailure posts a notice to the log chat when a sanction
// could not be applied, so admins can act manually
func (g *Guard) notifySanctionFailure(ctx context.Context, info *models.GroupInfo, ev MemberEvent, cause error) {
	if info.LogChatID == 0 {
		return
	}

	text := fmt.Sprintf("⚠️ <b>Sanction failed</b> [%s]\n"+
		"Could not ban user %s after a detected bounce.\n"+
		"<b>Reason</b>: %v", info.GetLinkedGroupName(), ev.MemberTag, cause)

	if _, err := g.platform.SendCard(ctx, info.LogChatID, text, nil); err != nil {
		logger.Warningf("Error posting sanction failure notice to chat %d: %v", info.LogChatID, err)
	}
}
