package ratelimit

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"moto-dispatch/internal/logx"
)

func TestAuthSubject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		target string
		body   string
		want   string
	}{
		{name: "login phone", target: "/auth/login", body: `{"telephone":"+225 07-00-00-00-01","mot_de_passe":"x"}`, want: "phone:+2250700000001"},
		{name: "reset by email", target: "/auth/forget-password?email=Awa@Example.com", want: "email:awa@example.com"},
		{name: "no subject", target: "/auth/reset-password", body: `{"token":"abc"}`, want: "ip:1.2.3.4"},
		{name: "not json", target: "/auth/login", body: `telephone=0700`, want: "ip:1.2.3.4"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, tc.target, strings.NewReader(tc.body))
			r.RemoteAddr = "1.2.3.4:5555"

			require.Equal(t, tc.want, AuthSubject(r))

			rest, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.Equal(t, tc.body, string(rest), "handler still sees the full body")
		})
	}
}

func TestAuthSubject_SpoofedForwardedForSharesBucket(t *testing.T) {
	t.Parallel()

	clk := ClockFunc(func() time.Time { return time.Unix(1000, 0) })
	lim := NewKeyLimiter(clk, Config{Rate: 1, Burst: 2})
	h := New(logx.Nop(), nil, lim).Scoped("auth").WithKey(AuthSubject).Handler()(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"telephone":"0700000001","mot_de_passe":"guess"}`))
		r.RemoteAddr = fmt.Sprintf("10.0.0.%d:4000", i+1)
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{200, 200, 429, 429}, codes)
}
