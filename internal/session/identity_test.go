package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/chat", nil)
	for _, cookie := range cookies {
		c.Request.AddCookie(cookie)
	}
	return c, w
}

func newTestResolver() *Resolver {
	return NewResolver(ResolverConfig{
		CookieName: "rm_sid",
		MaxAge:     30 * 24 * time.Hour,
		Secret:     []byte("test-secret"),
	})
}

func TestNewToken(t *testing.T) {
	a, b := NewToken(), NewToken()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestResolver_MintsCookie(t *testing.T) {
	r := newTestResolver()
	c, w := newTestContext()

	sid := r.Resolve(c)
	assert.Len(t, sid, 32)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "rm_sid", cookie.Name)
	assert.True(t, strings.HasPrefix(cookie.Value, sid+"."))
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 30*24*60*60, cookie.MaxAge)

	// 同一请求内再次解析得到相同标识
	assert.Equal(t, sid, r.Resolve(c))
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestResolver_ReusesValidCookie(t *testing.T) {
	r := newTestResolver()
	c, w := newTestContext()
	sid := r.Resolve(c)
	cookie := w.Result().Cookies()[0]

	c2, w2 := newTestContext(&http.Cookie{Name: "rm_sid", Value: cookie.Value})
	assert.Equal(t, sid, r.Resolve(c2))
	assert.Empty(t, w2.Result().Cookies())

	got, ok := r.Lookup(c2)
	assert.True(t, ok)
	assert.Equal(t, sid, got)
}

func TestResolver_RejectsTamperedCookie(t *testing.T) {
	r := newTestResolver()
	c, w := newTestContext()
	sid := r.Resolve(c)
	value := w.Result().Cookies()[0].Value

	tests := []struct {
		name  string
		value string
	}{
		{"未签名", sid},
		{"篡改标识", strings.Repeat("0", 32) + value[32:]},
		{"篡改签名", sid + ".AAAA"},
		{"非十六进制", strings.Repeat("z", 32) + value[32:]},
		{"其他密钥签名", NewResolver(ResolverConfig{Secret: []byte("other")}).sign(sid)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(&http.Cookie{Name: "rm_sid", Value: tt.value})
			_, ok := r.Lookup(c)
			assert.False(t, ok)

			minted := r.Resolve(c)
			assert.NotEqual(t, sid, minted)
			assert.Len(t, w.Result().Cookies(), 1)
		})
	}
}

func TestResolver_LookupWithoutCookie(t *testing.T) {
	r := newTestResolver()
	c, w := newTestContext()

	_, ok := r.Lookup(c)
	assert.False(t, ok)
	assert.Empty(t, w.Result().Cookies())
}

func TestResolver_RandomSecretWhenUnset(t *testing.T) {
	r := NewResolver(ResolverConfig{})
	assert.Equal(t, "rm_sid", r.config.CookieName)
	assert.Len(t, r.config.Secret, 32)
}
