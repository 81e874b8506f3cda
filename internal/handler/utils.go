package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
)

// parseCardCallback splits card callback data of the form
// bounce:<op>:<groupID>:<userID>
func parseCardCallback(data string) (string, int64, int64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 {
		return "", 0, 0, fmt.Errorf("invalid callback data format: %s", data)
	}

	groupID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid group ID: %v", err)
	}

	userID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid user ID: %v", err)
	}

	return parts[1], groupID, userID, nil
}

// GetLinkedUserName renders a user as an HTML mention link
func GetLinkedUserName(user telego.User) string {
	userName := user.FirstName
	if user.LastName != "" {
		userName += " " + user.LastName
	}

	displayName := userName
	if user.Username != "" {
		displayName = fmt.Sprintf("%s (@%s)", userName, user.Username)
	}

	userLink := fmt.Sprintf("tg://user?id=%d", user.ID)
	return fmt.Sprintf("<a href=\"%s\">%s</a>", userLink, displayName)
}

// parseContactIDs splits the stored comma-separated contact list
func parseContactIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// joinContactIDs renders a contact list back to its stored form
func joinContactIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func containsID(ids []int64, id int64) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
