package utils

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	CookieNameUserID = "room_identity"
	HeaderUserID     = "X-User-ID"
)

// SetIdentityCookie remembers a minted identity for one room so a
// browser client survives a refresh without re-requesting to join. The
// cookie is scoped to the room's path; identities are worthless outside
// their room.
func SetIdentityCookie(w http.ResponseWriter, roomCode, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieNameUserID,
		Value:    base64.StdEncoding.EncodeToString([]byte(userID)),
		Path:     FormatRoomPath(roomCode),
		HttpOnly: true,
		Expires:  time.Now().Add(24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
	})
}

func GetIdentityFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(CookieNameUserID)
	if err != nil {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// GetIdentityFromRequest resolves the caller's identity: explicit
// header for API clients first, cookie fallback for browsers.
func GetIdentityFromRequest(r *http.Request) string {
	if id := r.Header.Get(HeaderUserID); id != "" {
		return id
	}

	return GetIdentityFromCookie(r)
}

func FormatRoomPath(roomCode string) string {
	return fmt.Sprintf("/api/rooms/%s", url.PathEscape(roomCode))
}
