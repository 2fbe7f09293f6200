package ratelimit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"moto-dispatch/internal/domain"
)

// subjectPeekLimit bounds how much of an /auth body is read to find the account.
const subjectPeekLimit = 64 << 10

// AuthSubject keys /auth requests by the account they target: the telephone of a
// JSON body, else the ?email= of a reset request, else the client IP. Rotating
// source addresses does not buy fresh attempts against one account.
// The body is restored for the handler.
func AuthSubject(r *http.Request) string {
	if phone := peekPhone(r); phone != "" {
		return "phone:" + phone
	}
	if email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email"))); email != "" {
		return "email:" + email
	}
	return "ip:" + ClientIP(r)
}

func peekPhone(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, subjectPeekLimit))
	// остаток тела не теряем
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	if err != nil {
		return ""
	}

	var body struct {
		Telephone string `json:"telephone"`
	}
	if json.Unmarshal(head, &body) != nil {
		return ""
	}
	return domain.NormalizePhone(body.Telephone)
}
