package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/ports"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line1\nline2\ttab", "line1\nline2\ttab"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeInput(tt.in))
	}
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "abc", requestID(" abc "))
	assert.Len(t, requestID(""), 36)
	assert.Len(t, requestID("has space"), 36)
}

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"12,50"`, "12.5"},
		{`12.5`, "12.5"},
		{`""`, "0"},
		{`null`, "0"},
	}
	for _, tt := range tests {
		var a amount
		require.NoError(t, a.UnmarshalJSON([]byte(tt.raw)), tt.raw)
		d, err := a.decimal("x")
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.String(), tt.raw)
	}

	var bad amount
	require.NoError(t, bad.UnmarshalJSON([]byte(`"abc"`)))
	_, err := bad.decimal("cost")
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cost", ve.Field)

	rate, err := amount(" ").optional("exchange_rate")
	require.NoError(t, err)
	assert.Nil(t, rate)
}

func TestIncomeFilterFromQuery(t *testing.T) {
	f, err := incomeFilterFromQuery(url.Values{"owner": {"u1"}, "year": {"2024"}, "month": {"3"}})
	require.NoError(t, err)
	assert.Equal(t, "u1", f.Owner)
	assert.Equal(t, 2024, f.Year)
	assert.Equal(t, 3, f.Month)
	assert.Equal(t, ports.NonTemplates, f.IsTemplate)

	f, err = incomeFilterFromQuery(url.Values{"is_template": {"all"}})
	require.NoError(t, err)
	assert.Nil(t, f.IsTemplate)

	_, err = incomeFilterFromQuery(url.Values{"is_template": {"maybe"}})
	assert.True(t, core.IsValidation(err))

	_, err = incomeFilterFromQuery(url.Values{"source_id": {"-1"}})
	assert.True(t, core.IsValidation(err))
}

func TestTransactionFilterFromQuery(t *testing.T) {
	f, err := transactionFilterFromQuery(url.Values{"currency": {"eur"}, "type": {"Deposit"}, "bank_id": {"4"}})
	require.NoError(t, err)
	assert.Equal(t, core.EUR, f.Currency)
	assert.Equal(t, core.Deposit, f.Type)
	assert.Equal(t, int64(4), f.BankID)

	_, err = transactionFilterFromQuery(url.Values{"type": {"transfer"}})
	assert.True(t, core.IsValidation(err))
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.9:1234", "", "203.0.113.9"},
		{"untrusted proxy ignored", "203.0.113.9:1234", "198.51.100.1", "203.0.113.9"},
		{"trusted proxy", "10.0.0.2:1234", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy bad header", "10.0.0.2:1234", "garbage", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	m := &securityMetrics{}

	r := httptest.NewRequest(http.MethodGet, "/api/incomes", nil)
	assert.Empty(t, detectSuspiciousRequest(r, m))

	r = httptest.NewRequest(http.MethodGet, "/.env", nil)
	assert.NotEmpty(t, detectSuspiciousRequest(r, m))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("User-Agent", "sqlmap/1.7")
	assert.NotEmpty(t, detectSuspiciousRequest(r, m))

	assert.Equal(t, int64(2), m.snapshot()["suspicious_requests"])
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.stop()
	m := &securityMetrics{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, rl.allow("a", now, m))
	assert.True(t, rl.allow("a", now.Add(time.Second), m))
	assert.False(t, rl.allow("a", now.Add(2*time.Second), m))
	assert.True(t, rl.allow("b", now.Add(2*time.Second), m), "limits are per client")
	assert.True(t, rl.allow("a", now.Add(61*time.Second), m), "window resets")
	assert.Equal(t, int64(1), m.snapshot()["rate_limit_hits"])

	assert.Equal(t, 2, rl.cleanupStaleEntries(now.Add(time.Hour)))
}
