// Package backendtest runs an in-process stand-in for the REST backend the
// console talks to. Tests use it to count refresh calls and observe which
// bearer token each request carried.
package backendtest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/constraints"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var SigningKey = []byte("backendtest-signing-key")

const refreshCookie = "refreshToken"

type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	TraceID       string
}

type Claims struct {
	Role        string   `json:"role,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
	jwt.RegisteredClaims
}

type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	valid     map[string]bool
	requests  []Request
	refreshes int

	users     map[string]string
	role      string
	principal v1.Principal
	resources map[string]any
	gate      chan struct{}

	// FailRefresh rejects refresh calls with 401.
	FailRefresh atomic.Bool
	// DropRefresh and DropLogout cut the connection instead of answering.
	DropRefresh atomic.Bool
	DropLogout  atomic.Bool
	// LegacySignin answers signin with {"token": ...} instead of {"accessToken": ...}.
	LegacySignin atomic.Bool
}

func New() *Backend {
	gin.SetMode(gin.TestMode)
	b := &Backend{
		valid:     make(map[string]bool),
		users:     map[string]string{"admin": "admin123"},
		role:      constraints.RoleAdmin,
		resources: make(map[string]any),
	}

	r := gin.New()
	r.Use(b.record)
	r.POST(constraints.EndpointSignIn, b.signin)
	r.POST(constraints.EndpointRefresh, b.refresh)
	r.POST(constraints.EndpointLogout, b.logout)
	r.GET(constraints.EndpointMe, b.authenticated, b.me)
	r.NoRoute(b.authenticated, b.resource)

	b.Server = httptest.NewServer(r)
	return b
}

func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) Close() {
	b.Server.Close()
}

// SetResource serves body for GET path.
func (b *Backend) SetResource(path string, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resources[path] = body
}

// SetPrincipal sets the /user/me body.
func (b *Backend) SetPrincipal(p v1.Principal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.principal = p
}

// SetRole sets the role claim of tokens issued by signin and refresh.
func (b *Backend) SetRole(role string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.role = role
}

// HoldRefresh parks every refresh call until release is called.
func (b *Backend) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Issue mints a token the backend accepts until it is revoked.
func (b *Backend) Issue(role string, ttl time.Duration) string {
	token := Mint(Claims{Role: role}, ttl)
	b.mu.Lock()
	b.valid[token] = true
	b.mu.Unlock()
	return token
}

// Revoke makes the backend answer 401 to token from now on.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	delete(b.valid, token)
	b.mu.Unlock()
}

func (b *Backend) Requests(path string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Request
	for _, r := range b.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (b *Backend) RefreshCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshes
}

// WaitForRequests polls until path has been requested n times or timeout passes.
func (b *Backend) WaitForRequests(path string, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(b.Requests(path)) >= n {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

// Mint signs claims with the backend key. ttl <= 0 produces an already expired token.
func Mint(claims Claims, ttl time.Duration) string {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}
	if ttl <= 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(SigningKey)
	if err != nil {
		panic(err)
	}
	return token
}

func (b *Backend) record(c *gin.Context) {
	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Query:         c.Request.URL.RawQuery,
		Authorization: c.GetHeader("Authorization"),
		TraceID:       c.GetHeader("X-Trace-ID"),
	})
	b.mu.Unlock()
	c.Next()
}

func (b *Backend) authenticated(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	b.mu.Lock()
	ok := b.valid[token]
	b.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
		return
	}
	c.Next()
}

func (b *Backend) signin(c *gin.Context) {
	var body v1.LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.mu.Lock()
	password, ok := b.users[body.Username]
	role := b.role
	b.mu.Unlock()
	if !ok || password != body.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token := b.Issue(role, 15*time.Minute)
	c.SetCookie(refreshCookie, uuid.New().String(), int(constraints.TokenMaxAge.Seconds()), "/", "", false, true)
	if b.LegacySignin.Load() {
		c.JSON(http.StatusOK, gin.H{"token": token})
		return
	}
	c.JSON(http.StatusOK, v1.TokenResponse{AccessToken: token})
}

func (b *Backend) refresh(c *gin.Context) {
	b.mu.Lock()
	b.refreshes++
	gate := b.gate
	role := b.role
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if b.DropRefresh.Load() {
		panic(http.ErrAbortHandler)
	}
	if b.FailRefresh.Load() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, v1.TokenResponse{AccessToken: b.Issue(role, 15*time.Minute)})
}

func (b *Backend) logout(c *gin.Context) {
	if b.DropLogout.Load() {
		panic(http.ErrAbortHandler)
	}
	b.Revoke(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (b *Backend) me(c *gin.Context) {
	b.mu.Lock()
	p := b.principal
	b.mu.Unlock()
	c.JSON(http.StatusOK, p)
}

func (b *Backend) resource(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodDelete, http.MethodPut, http.MethodPost:
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
		return
	}
	b.mu.Lock()
	body, ok := b.resources[c.Request.URL.Path]
	b.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, body)
}
