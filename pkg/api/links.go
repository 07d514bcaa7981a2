package api

import (
	"net/url"
	"strings"
)

// EntryLink builds the shareable link a participant opens to join a room.
func EntryLink(baseURL, roomID, title string) string {
	q := url.Values{}
	q.Set("roomId", roomID)
	q.Set("title", title)
	return strings.TrimRight(baseURL, "/") + "/entry?" + q.Encode()
}
