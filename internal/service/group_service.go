package service

import (
	"context"
	"fmt"
	"time"

	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/models"

	"github.com/mymmrac/telego"
)

// GetGroupInfo gets group info from cache or database
func GetGroupInfo(bot *telego.Bot, groupID int64, create bool) *models.GroupInfo {
	// First check the in-memory cache
	groupInfo := groupInfoManager.GetGroupInfo(groupID)
	if groupInfo != nil {
		return groupInfo
	}

	if groupRepository != nil {
		dbGroupInfo, err := groupRepository.GetGroupInfo(groupID)
		if err != nil {
			logger.Warningf("Error fetching group info from database: %v", err)
		} else if dbGroupInfo != nil {
			groupInfoManager.AddGroupInfo(dbGroupInfo)
			return dbGroupInfo
		}
	}

	if !create {
		return nil
	}

	logger.Infof("Creating new group info for groupID: %d", groupID)
	banSeconds, err := models.ParseDurationToken(globalConfig.Bounce.BanDuration)
	if err != nil {
		logger.Warningf("Invalid default ban duration %q, falling back to 1d", globalConfig.Bounce.BanDuration)
		banSeconds = 86400
	}
	groupInfo = &models.GroupInfo{
		GroupID:             groupID,
		IsAdmin:             false,
		AdminID:             -1,
		Enabled:             globalConfig.Bounce.Enabled,
		WindowSeconds:       globalConfig.Bounce.WindowSeconds,
		BanSeconds:          banSeconds,
		MaxContacts:         globalConfig.Bounce.MaxContacts,
		IncludeBots:         globalConfig.Bounce.IncludeBots,
		WelcomeEnabled:      globalConfig.Bounce.WelcomeEnabled,
		RepeatEnabled:       globalConfig.Bounce.Repeat.Enabled,
		RepeatWindowMinutes: globalConfig.Bounce.Repeat.WindowMinutes,
		RepeatThreshold:     globalConfig.Bounce.Repeat.Threshold,
	}

	// get group name and link from telegram
	if groupID < 0 && bot != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		chatInfo, err := bot.GetChat(ctx, &telego.GetChatParams{
			ChatID: telego.ChatID{ID: groupID},
		})
		if err != nil {
			logger.Warningf("Error getting chat info from Telegram: %v", err)
			return groupInfo
		}

		groupInfo.GroupName = chatInfo.Title
		if chatInfo.Username != "" {
			groupInfo.GroupLink = fmt.Sprintf("https://t.me/%s", chatInfo.Username)
		} else {
			// Telegram requires removing the -100 prefix from supergroup IDs for links
			groupIDForLink := groupID
			if groupIDForLink < -1000000000000 {
				groupIDForLink = -groupIDForLink - 1000000000000
			}
			groupInfo.GroupLink = fmt.Sprintf("https://t.me/c/%d", groupIDForLink)
		}
	}

	groupInfoManager.AddGroupInfo(groupInfo)

	if groupRepository != nil {
		if err := groupRepository.CreateOrUpdateGroupInfo(groupInfo); err != nil {
			logger.Warningf("Error saving group info to database: %v", err)
		}
	}

	return groupInfo
}

// UpdateGroupInfo updates group information in cache and database
func UpdateGroupInfo(groupInfo *models.GroupInfo) {
	groupInfoManager.AddGroupInfo(groupInfo)

	if groupRepository != nil {
		if err := groupRepository.CreateOrUpdateGroupInfo(groupInfo); err != nil {
			logger.Warningf("Error updating group info in database: %v", err)
		}
	}
}
