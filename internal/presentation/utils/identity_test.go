package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIdentityCookieRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	SetIdentityCookie(rec, "KX7PQ", "user-123")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != CookieNameUserID {
		t.Errorf("cookie name = %q", cookie.Name)
	}
	if cookie.Path != "/api/rooms/KX7PQ" {
		t.Errorf("cookie path = %q", cookie.Path)
	}
	if !cookie.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	if got := GetIdentityFromCookie(r); got != "user-123" {
		t.Errorf("GetIdentityFromCookie = %q, want user-123", got)
	}
}

func TestGetIdentityFromRequestPrefersHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	SetIdentityCookie(rec, "KX7PQ", "cookie-id")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(rec.Result().Cookies()[0])
	r.Header.Set(HeaderUserID, "header-id")

	if got := GetIdentityFromRequest(r); got != "header-id" {
		t.Errorf("GetIdentityFromRequest = %q, want header-id", got)
	}
}

func TestGetIdentityFromRequestMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetIdentityFromRequest(r); got != "" {
		t.Errorf("GetIdentityFromRequest = %q, want empty", got)
	}
}

func TestGetIdentityFromCookieBadEncoding(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieNameUserID, Value: "%%%not-base64%%%"})
	if got := GetIdentityFromCookie(r); got != "" {
		t.Errorf("GetIdentityFromCookie = %q, want empty", got)
	}
}
