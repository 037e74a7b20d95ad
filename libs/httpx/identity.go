package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

// Identity headers are set by the gateway after token verification and
// stripped from inbound requests before that. Name and email travel
// percent-encoded so free text never breaks the header line.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
	HeaderRole      = "X-Role"
)

type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

func IdentityFromRequest(r *http.Request) (Identity, bool) {
	id := Identity{
		UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Name:   headerText(r.Header.Get(HeaderUserName)),
		Email:  headerText(r.Header.Get(HeaderUserEmail)),
		Role:   strings.TrimSpace(r.Header.Get(HeaderRole)),
	}
	return id, id.UserID != ""
}

func (id Identity) IsAdmin() bool {
	return id.Role == "admin"
}

func ClearIdentity(h http.Header) {
	h.Del(HeaderUserID)
	h.Del(HeaderUserName)
	h.Del(HeaderUserEmail)
	h.Del(HeaderRole)
}

func SetIdentity(h http.Header, id Identity) {
	ClearIdentity(h)
	h.Set(HeaderUserID, id.UserID)
	h.Set(HeaderUserName, url.PathEscape(id.Name))
	h.Set(HeaderUserEmail, url.PathEscape(id.Email))
	h.Set(HeaderRole, id.Role)
}

// headerText decodes a percent-encoded header value. Values that do not
// decode are returned as sent.
func headerText(raw string) string {
	raw = strings.TrimSpace(raw)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return strings.TrimSpace(decoded)
	}
	return raw
}
