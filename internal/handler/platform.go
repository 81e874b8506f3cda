package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"

	"tg-bounceguard/internal/logger"
)

// ErrNotBanned reports that a reversal targeted a user who has no active
// ban. Callers treat it as an already-resolved outcome, not a failure.
var ErrNotBanned = errors.New("user is not banned")

// Platform is the subset of Telegram operations the bounce engine issues.
// Extracting it keeps the engine testable against fakes.
type Platform interface {
	SendDirectMessage(ctx context.Context, userID int64, text string) error
	Ban(ctx context.Context, groupID, userID int64, reason string) error
	Unban(ctx context.Context, groupID, userID int64) error
	CreateInviteLink(ctx context.Context, groupID int64) (string, error)
	SendCard(ctx context.Context, chatID int64, text string, markup *telego.InlineKeyboardMarkup) (int, error)
	EditCard(ctx context.Context, chatID int64, messageID int, text string, markup *telego.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, queryID, text string, alert bool) error
	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
}

// telegoPlatform implements Platform over a live bot connection
type telegoPlatform struct {
	bot *telego.Bot
}

// NewTelegoPlatform wraps a bot in the Platform interface
func NewTelegoPlatform(bot *telego.Bot) Platform {
	return &telegoPlatform{bot: bot}
}

func (p *telegoPlatform) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	_, err := p.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: userID},
		Text:      text,
		ParseMode: "HTML",
	})
	return err
}

func (p *telegoPlatform) Ban(ctx context.Context, groupID, userID int64, reason string) error {
	err := p.bot.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: telego.ChatID{ID: groupID},
		UserID: userID,
	})
	if err != nil {
		return fmt.Errorf("failed to ban user %d in group %d: %w", userID, groupID, err)
	}
	logger.Infof("Banned user %d in group %d: %s", userID, groupID, reason)
	return nil
}

func (p *telegoPlatform) Unban(ctx context.Context, groupID, userID int64) error {
	err := p.bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       telego.ChatID{ID: groupID},
		UserID:       userID,
		OnlyIfBanned: true,
	})
	if err != nil {
		if isNotBannedDescription(err) {
			return ErrNotBanned
		}
		return fmt.Errorf("failed to unban user %d in group %d: %w", userID, groupID, err)
	}
	return nil
}

func (p *telegoPlatform) CreateInviteLink(ctx context.Context, groupID int64) (string, error) {
	invite, err := p.bot.CreateChatInviteLink(ctx, &telego.CreateChatInviteLinkParams{
		ChatID: telego.ChatID{ID: groupID},
	})
	if err == nil && invite != nil {
		return invite.InviteLink, nil
	}

	// Fall back to the primary invite link
	link, expErr := p.bot.ExportChatInviteLink(ctx, &telego.ExportChatInviteLinkParams{
		ChatID: telego.ChatID{ID: groupID},
	})
	if expErr != nil {
		return "", fmt.Errorf("failed to create invite link for group %d: %w", groupID, err)
	}
	return *link, nil
}

func (p *telegoPlatform) SendCard(ctx context.Context, chatID int64, text string, markup *telego.InlineKeyboardMarkup) (int, error) {
	params := &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: "HTML",
	}
	// A typed nil in the ReplyMarkup interface serializes as null
	if markup != nil {
		params.ReplyMarkup = markup
	}

	msg, err := p.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (p *telegoPlatform) EditCard(ctx context.Context, chatID int64, messageID int, text string, markup *telego.InlineKeyboardMarkup) error {
	params := &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: chatID},
		MessageID: messageID,
		Text:      text,
		ParseMode: "HTML",
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	_, err := p.bot.EditMessageText(ctx, params)
	return err
}

func (p *telegoPlatform) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	return p.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
}

func (p *telegoPlatform) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	admins, err := p.bot.GetChatAdministrators(ctx, &telego.GetChatAdministratorsParams{
		ChatID: telego.ChatID{ID: groupID},
	})
	if err != nil {
		return false, err
	}

	for _, admin := range admins {
		if admin.MemberUser().ID == userID {
			return true, nil
		}
	}
	return false, nil
}

// isNotBannedDescription matches the Bot API descriptions returned when a
// reversal targets a user without an active ban
func isNotBannedDescription(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not banned") ||
		strings.Contains(msg, "user not found") ||
		strings.Contains(msg, "participant_id_invalid")
}
