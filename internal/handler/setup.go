package handler

import (
	"context"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-bounceguard/internal/config"
	"tg-bounceguard/internal/crash"
	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/service"
)

var globalConfig *config.Config

func Initialize(cfg *config.Config) {
	globalConfig = cfg
	service.Initialize(cfg)
}

// SetupMessageHandlers configures all bot message and update handlers
func SetupMessageHandlers(bh *th.BotHandler, bot *telego.Bot, guard *Guard) {
	service.InitRepositories()
	guard.RestoreCards()

	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		ok, err := guard.HandleCommand(ctx.Context(), message)
		if ok {
			return err
		}
		return nil
	})

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return handleChatMemberUpdate(ctx, bot, guard, update)
	}, th.AnyChatMember())

	bh.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		return guard.HandleCallbackQuery(ctx.Context(), query)
	})
}

// handleChatMemberUpdate maps raw membership transitions onto join and
// leave events. A removal by an admin is not a voluntary departure and is
// never counted as a bounce.
func handleChatMemberUpdate(ctx *th.Context, bot *telego.Bot, guard *Guard, update telego.Update) error {
	if update.ChatMember == nil {
		return nil
	}

	chatID := update.ChatMember.Chat.ID
	oldMember := update.ChatMember.OldChatMember
	newMember := update.ChatMember.NewChatMember
	user := newMember.MemberUser()

	// Track the admin who promoted the bot, same as every other update
	// about the bot itself
	if user.ID == bot.ID() {
		info := service.GetGroupInfo(bot, chatID, true)
		if info == nil {
			return nil
		}
		if newMember.MemberStatus() == telego.MemberStatusAdministrator {
			logger.Infof("Bot was promoted to admin in chat %d by user %d", chatID, update.ChatMember.From.ID)
			info.IsAdmin = true
			info.AdminID = update.ChatMember.From.ID
		} else {
			info.IsAdmin = false
		}
		service.UpdateGroupInfo(info)
		return nil
	}

	info := service.GetGroupInfo(bot, chatID, true)
	if info == nil || !info.Enabled {
		return nil
	}

	ev := MemberEvent{
		GroupID:   chatID,
		UserID:    user.ID,
		MemberTag: GetLinkedUserName(user),
		IsBot:     user.IsBot,
		Time:      time.Now(),
	}

	wasMember := oldMember.MemberIsMember()
	isMember := newMember.MemberIsMember()

	if !wasMember && isMember {
		guard.HandleJoin(ctx.Context(), info, ev)
		return nil
	}

	if wasMember && newMember.MemberStatus() == telego.MemberStatusLeft {
		// The settle delay makes this slow, keep it off the update loop
		crash.SafeGoroutine("bounce-leave", func() {
			if err := guard.HandleLeave(context.Background(), info, ev); err != nil {
				logger.Errorf("Error handling leave for user %d in group %d: %v", ev.UserID, chatID, err)
			}
		})
	}

	return nil
}
