package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"

	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/models"
	"tg-bounceguard/internal/service"
)

const (
	minWindowSeconds = 10
	maxWindowSeconds = 3600
)

// HandleCommand dispatches /bounce_* admin commands. Returns true when the
// message was a bounce command, whether or not it succeeded.
func (g *Guard) HandleCommand(ctx context.Context, message telego.Message) (bool, error) {
	if message.From == nil || !strings.HasPrefix(message.Text, "/bounce") {
		return false, nil
	}

	fields := strings.Fields(message.Text)
	// Strip the @botname suffix used in groups
	command := strings.SplitN(fields[0], "@", 2)[0]
	args := fields[1:]

	groupID := message.Chat.ID
	logger.Infof("Received command %s from user %d in chat %d", command, message.From.ID, groupID)

	if !g.isAuthorized(ctx, groupID, message.From.ID) {
		g.reply(ctx, groupID, "Only group administrators can configure the bounce guard.")
		return true, nil
	}

	info := service.GetGroupInfo(g.bot, groupID, true)
	if info == nil {
		g.reply(ctx, groupID, "Could not load settings for this group.")
		return true, nil
	}

	switch command {
	case "/bounce_on":
		info.Enabled = true
		service.UpdateGroupInfo(info)
		g.reply(ctx, groupID, "Bounce guard enabled.")

	case "/bounce_off":
		info.Enabled = false
		service.UpdateGroupInfo(info)
		g.reply(ctx, groupID, "Bounce guard disabled.")

	case "/bounce_status":
		g.reply(ctx, groupID, buildStatusText(info, g.cards.Len(), g.joins.Len()))

	case "/bounce_window":
		g.commandWindow(ctx, info, args)

	case "/bounce_duration":
		g.commandDuration(ctx, info, args)

	case "/bounce_logchat":
		g.commandLogChat(ctx, info, args, message.Chat.ID)

	case "/bounce_welcome":
		g.commandToggle(ctx, info, args, "Welcome messages", func(v bool) { info.WelcomeEnabled = v })

	case "/bounce_bots":
		g.commandToggle(ctx, info, args, "Bot account tracking", func(v bool) { info.IncludeBots = v })

	case "/bounce_contact":
		g.commandContact(ctx, info, args)

	case "/bounce_count":
		g.commandCount(ctx, info, args)

	default:
		g.reply(ctx, groupID, "Unknown bounce command.")
	}

	return true, nil
}

func (g *Guard) reply(ctx context.Context, chatID int64, text string) {
	if _, err := g.platform.SendCard(ctx, chatID, text, nil); err != nil {
		logger.Warningf("Error sending reply to chat %d: %v", chatID, err)
	}
}

func buildStatusText(info *models.GroupInfo, liveCards, cachedJoins int) string {
	state := "disabled"
	if info.Enabled {
		state = "enabled"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏓 <b>Bounce guard status</b>\n")
	fmt.Fprintf(&b, "State: %s\n", state)
	fmt.Fprintf(&b, "Window: %ds\n", info.WindowSeconds)
	fmt.Fprintf(&b, "Ban duration: %s\n", models.FormatDurationToken(info.BanSeconds))
	fmt.Fprintf(&b, "Welcome messages: %v\n", info.WelcomeEnabled)
	fmt.Fprintf(&b, "Track bot accounts: %v\n", info.IncludeBots)
	fmt.Fprintf(&b, "Log chat: %d\n", info.LogChatID)
	fmt.Fprintf(&b, "Contacts: %d\n", len(parseContactIDs(info.ContactIDs)))
	fmt.Fprintf(&b, "Live cards: %d\n", liveCards)
	fmt.Fprintf(&b, "Cached joins: %d", cachedJoins)
	return b.String()
}

func (g *Guard) commandWindow(ctx context.Context, info *models.GroupInfo, args []string) {
	if len(args) != 1 {
		g.reply(ctx, info.GroupID, fmt.Sprintf("Usage: /bounce_window <seconds> (%d-%d)",
			minWindowSeconds, maxWindowSeconds))
		return
	}

	seconds, err := strconv.Atoi(args[0])
	if err != nil || seconds < minWindowSeconds || seconds > maxWindowSeconds {
		g.reply(ctx, info.GroupID, fmt.Sprintf("Window must be an integer between %d and %d seconds.",
			minWindowSeconds, maxWindowSeconds))
		return
	}

	info.WindowSeconds = seconds
	service.UpdateGroupInfo(info)
	g.reply(ctx, info.GroupID, fmt.Sprintf("Bounce window set to %ds.", seconds))
}

func (g *Guard) commandDuration(ctx context.Context, info *models.GroupInfo, args []string) {
	if len(args) != 1 {
		g.reply(ctx, info.GroupID, "Usage: /bounce_duration <n>m|<n>h|<n>d (e.g. 12h)")
		return
	}

	seconds, err := models.ParseDurationToken(args[0])
	if err != nil {
		g.reply(ctx, info.GroupID, "Invalid duration. Use a positive integer with m, h or d, e.g. 30m, 12h, 7d.")
		return
	}

	info.BanSeconds = seconds
	service.UpdateGroupInfo(info)
	g.reply(ctx, info.GroupID, fmt.Sprintf("Temporary ban duration set to %s.",
		models.FormatDurationToken(seconds)))
}

func (g *Guard) commandLogChat(ctx context.Context, info *models.GroupInfo, args []string, currentChatID int64) {
	chatID := currentChatID
	if len(args) == 1 {
		parsed, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			g.reply(ctx, info.GroupID, "Usage: /bounce_logchat [chat_id]")
			return
		}
		chatID = parsed
	}

	info.LogChatID = chatID
	service.UpdateGroupInfo(info)
	g.reply(ctx, info.GroupID, fmt.Sprintf("Review cards will be posted to chat %d.", chatID))
}

func (g *Guard) commandToggle(ctx context.Context, info *models.GroupInfo, args []string, label string, set func(bool)) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		g.reply(ctx, info.GroupID, "Usage: on|off")
		return
	}

	enabled := args[0] == "on"
	set(enabled)
	service.UpdateGroupInfo(info)

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	g.reply(ctx, info.GroupID, fmt.Sprintf("%s %s.", label, state))
}

func (g *Guard) commandContact(ctx context.Context, info *models.GroupInfo, args []string) {
	usage := "Usage: /bounce_contact add <user_id> | remove <user_id> | list"
	if len(args) == 0 {
		g.reply(ctx, info.GroupID, usage)
		return
	}

	ids := parseContactIDs(info.ContactIDs)

	switch args[0] {
	case "list":
		if len(ids) == 0 {
			g.reply(ctx, info.GroupID, "No appeal contacts configured.")
			return
		}
		g.reply(ctx, info.GroupID, fmt.Sprintf("Appeal contacts: %s", joinContactIDs(ids)))

	case "add":
		if len(args) != 2 {
			g.reply(ctx, info.GroupID, usage)
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			g.reply(ctx, info.GroupID, "Invalid user ID.")
			return
		}
		if containsID(ids, id) {
			g.reply(ctx, info.GroupID, "That user is already a contact.")
			return
		}
		if info.MaxContacts > 0 && len(ids) >= info.MaxContacts {
			g.reply(ctx, info.GroupID, fmt.Sprintf("Contact list is full (%d max).", info.MaxContacts))
			return
		}
		info.ContactIDs = joinContactIDs(append(ids, id))
		service.UpdateGroupInfo(info)
		g.reply(ctx, info.GroupID, fmt.Sprintf("Added contact %d.", id))

	case "remove":
		if len(args) != 2 {
			g.reply(ctx, info.GroupID, usage)
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || !containsID(ids, id) {
			g.reply(ctx, info.GroupID, "That user is not a contact.")
			return
		}
		remaining := make([]int64, 0, len(ids)-1)
		for _, existing := range ids {
			if existing != id {
				remaining = append(remaining, existing)
			}
		}
		info.ContactIDs = joinContactIDs(remaining)
		service.UpdateGroupInfo(info)
		g.reply(ctx, info.GroupID, fmt.Sprintf("Removed contact %d.", id))

	default:
		g.reply(ctx, info.GroupID, usage)
	}
}

// commandCount inspects or adjusts a user's offense count. Adjustments
// accept +n, -n, reset or an absolute value.
func (g *Guard) commandCount(ctx context.Context, info *models.GroupInfo, args []string) {
	usage := "Usage: /bounce_count <user_id> [+n|-n|reset|n]"
	if len(args) == 0 || len(args) > 2 {
		g.reply(ctx, info.GroupID, usage)
		return
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		g.reply(ctx, info.GroupID, "Invalid user ID.")
		return
	}

	current, err := service.GetCounter(info.GroupID, userID)
	if err != nil {
		logger.Errorf("Error reading bounce counter: %v", err)
		g.reply(ctx, info.GroupID, "Could not read the bounce count.")
		return
	}

	if len(args) == 1 {
		g.reply(ctx, info.GroupID, fmt.Sprintf("User %d has %d recorded bounces.", userID, current))
		return
	}

	var next int
	adj := args[1]
	switch {
	case adj == "reset":
		next = 0
	case strings.HasPrefix(adj, "+") || strings.HasPrefix(adj, "-"):
		delta, err := strconv.Atoi(adj)
		if err != nil {
			g.reply(ctx, info.GroupID, usage)
			return
		}
		next = current + delta
	default:
		value, err := strconv.Atoi(adj)
		if err != nil {
			g.reply(ctx, info.GroupID, usage)
			return
		}
		next = value
	}
	if next < 0 {
		next = 0
	}

	if err := service.SetCounter(info.GroupID, userID, next); err != nil {
		logger.Errorf("Error setting bounce counter: %v", err)
		g.reply(ctx, info.GroupID, "Could not update the bounce count.")
		return
	}
	g.reply(ctx, info.GroupID, fmt.Sprintf("Bounce count for user %d is now %d.", userID, next))
}
