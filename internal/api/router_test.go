package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"adminconsole/client"
	"adminconsole/internal/backendtest"
	"adminconsole/internal/dto/resp"
	"adminconsole/internal/guard"
	"adminconsole/internal/middleware"
	"adminconsole/internal/model"
	"adminconsole/internal/service"
	"adminconsole/internal/session"
	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/constraints"
	"adminconsole/pkg/logger"

	"github.com/gin-gonic/gin"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

type console struct {
	router  *gin.Engine
	backend *backendtest.Backend
	session *session.Context
}

func newConsole(t *testing.T) *console {
	t.Helper()
	b := backendtest.New()
	t.Cleanup(b.Close)

	sess := session.New(context.Background(), nil, nil)
	c := client.New(b.URL(), sess)
	authSvc := service.NewAuthService(c, sess)

	hub := service.NewHub(nil, time.Hour, 64)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	sess.OnEvent(hub.Publish)

	cols := service.NewCatalog(c).Collections()
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}

	r := RegisterRoutes(Handlers{
		Auth:        NewAuthHandler(authSvc, sess, constraints.RoleAdmin, false),
		Pages:       NewPageHandler(authSvc, service.NewSettingsStore(model.DefaultLowStockThreshold), names, nil),
		Stream:      NewStreamHandler(hub, sess),
		Collections: cols,
	}, RouterOptions{
		Guard:     guard.New(guard.DefaultConfig(), sess, c, nil),
		AdminRole: constraints.RoleAdmin,
		SignInRPS: 100,
	})
	return &console{router: r, backend: b, session: sess}
}

func (c *console) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.router.ServeHTTP(w, req)
	return w
}

func (c *console) loginAs(role string) string {
	token := c.backend.Issue(role, time.Hour)
	c.session.Login(context.Background(), token)
	return token
}

func TestSignInFlow(t *testing.T) {
	c := newConsole(t)
	c.backend.SetPrincipal(v1.Principal{Username: "admin", Role: v1.RoleList{constraints.RoleAdmin}})

	w := c.do(http.MethodGet, "/", "", "")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != constraints.PathSignIn {
		t.Fatalf("anonymous dashboard: %d %s", w.Code, w.Header().Get("Location"))
	}

	w = c.do(http.MethodPost, "/signin", "application/json", `{"username":"admin","password":"admin123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in: %d %s", w.Code, w.Body)
	}
	var signIn resp.SignInResp
	_ = json.Unmarshal(w.Body.Bytes(), &signIn)
	if signIn.Redirect != constraints.PathHome {
		t.Errorf("redirect = %q", signIn.Redirect)
	}
	if cookie := w.Header().Get("Set-Cookie"); !strings.HasPrefix(cookie, constraints.TokenCookieName+"="+c.session.Token()) {
		t.Errorf("Set-Cookie = %q", cookie)
	}

	w = c.do(http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: %d %s", w.Code, w.Body)
	}
	var dash resp.DashboardResp
	_ = json.Unmarshal(w.Body.Bytes(), &dash)
	if dash.Principal == nil || dash.Principal.Username != "admin" || len(dash.Resources) == 0 {
		t.Errorf("dashboard = %+v", dash)
	}
	if dash.Settings.LowStockThreshold != model.DefaultLowStockThreshold {
		t.Errorf("settings = %+v", dash.Settings)
	}

	// Signed in, the sign-in page sends the operator home.
	w = c.do(http.MethodGet, "/signin", "", "")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != constraints.PathHome {
		t.Errorf("signed-in sign-in page: %d %s", w.Code, w.Header().Get("Location"))
	}
}

func TestSignIn_Form(t *testing.T) {
	c := newConsole(t)
	form := url.Values{"username": {"admin"}, "password": {"admin123"}}.Encode()

	w := c.do(http.MethodPost, "/signin", "application/x-www-form-urlencoded", form)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != constraints.PathHome {
		t.Errorf("form sign-in: %d %s", w.Code, w.Header().Get("Location"))
	}
}

func TestSignIn_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		legacy bool
		code   int
	}{
		{"wrong password", `{"username":"admin","password":"x"}`, false, http.StatusUnauthorized},
		{"missing password", `{"username":"admin"}`, false, http.StatusBadRequest},
		{"legacy response", `{"username":"admin","password":"admin123"}`, true, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConsole(t)
			c.backend.LegacySignin.Store(tt.legacy)

			w := c.do(http.MethodPost, "/signin", "application/json", tt.body)
			if w.Code != tt.code {
				t.Errorf("code = %d, want %d (%s)", w.Code, tt.code, w.Body)
			}
			if c.session.Token() != "" {
				t.Error("failed sign-in stored a token")
			}
		})
	}
}

func TestResourcePages(t *testing.T) {
	c := newConsole(t)
	c.loginAs("USER")
	c.backend.SetResource("/product", v1.Page[model.Product]{
		Content:      []model.Product{{ID: 1, Name: "Milk"}},
		TotalRecords: 1,
	})
	c.backend.SetResource("/product/1", model.Product{ID: 1, Name: "Milk"})

	w := c.do(http.MethodGet, "/products?pageNumber=1&search=mi&startDate=2024-01-01", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body)
	}
	var page v1.Page[model.Product]
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if len(page.Content) != 1 || page.TotalPages != 1 {
		t.Errorf("page = %+v", page)
	}
	if q := c.backend.Requests("/product")[0].Query; !strings.Contains(q, "startDate=2024-01-01") {
		t.Errorf("backend query = %s", q)
	}

	if w := c.do(http.MethodGet, "/products/1", "", ""); w.Code != http.StatusOK {
		t.Errorf("get: %d", w.Code)
	}

	c.backend.SetResource("/category/all", []model.Category{{ID: 3, Name: "Dairy"}})
	w = c.do(http.MethodGet, "/categories/all", "", "")
	var categories []model.Category
	_ = json.Unmarshal(w.Body.Bytes(), &categories)
	if w.Code != http.StatusOK || len(categories) != 1 || categories[0].Name != "Dairy" {
		t.Errorf("all: %d %s", w.Code, w.Body)
	}
	if n := len(c.backend.Requests("/category/all")); n != 1 {
		t.Errorf("all requests = %d, want 1", n)
	}
	if w := c.do(http.MethodGet, "/products/2", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("get missing: %d", w.Code)
	}
	if w := c.do(http.MethodGet, "/products?startDate=01/01/2024", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad date: %d", w.Code)
	}

	if w := c.do(http.MethodPut, "/products/1", "application/json", `{"id":1,"name":"Oat milk"}`); w.Code != http.StatusOK {
		t.Errorf("update: %d %s", w.Code, w.Body)
	}
	if w := c.do(http.MethodPut, "/products/1", "application/json", `{"id":`); w.Code != http.StatusBadRequest {
		t.Errorf("update bad json: %d", w.Code)
	}

	w = c.do(http.MethodDelete, "/products/1?pageNumber=1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body)
	}
	del := c.backend.Requests("/product/delete")
	if len(del) != 1 || del[0].Query != "id=1" {
		t.Errorf("delete requests = %+v", del)
	}
	if n := len(c.backend.Requests("/product")); n != 2 {
		t.Errorf("list requests = %d, want a refetch after delete", n)
	}
}

func TestAdminPages(t *testing.T) {
	c := newConsole(t)
	c.backend.SetResource("/admin/auditlog", v1.Page[model.AuditLog]{Content: []model.AuditLog{{ID: 1, Method: "PUT"}}})

	c.loginAs("USER")
	w := c.do(http.MethodGet, "/admin/audit-logs", "", "")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != constraints.PathHome {
		t.Fatalf("user on admin page: %d %s", w.Code, w.Header().Get("Location"))
	}
	if w.Header().Get(middleware.NoticeHeader) != constraints.NoticeAccessDenied {
		t.Errorf("notice = %q", w.Header().Get(middleware.NoticeHeader))
	}
	if n := len(c.backend.Requests("/admin/auditlog")); n != 0 {
		t.Errorf("denied page still fetched data %d times", n)
	}

	c.loginAs(constraints.RoleAdmin)
	if w := c.do(http.MethodGet, "/admin/audit-logs", "", ""); w.Code != http.StatusOK {
		t.Errorf("admin on admin page: %d", w.Code)
	}
	if w := c.do(http.MethodDelete, "/admin/audit-logs/1", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("audit logs are read-only, got %d", w.Code)
	}
}

func TestExpiredSessionDuringLoad(t *testing.T) {
	c := newConsole(t)
	token := c.loginAs("USER")
	c.backend.Revoke(token)
	c.backend.FailRefresh.Store(true)

	w := c.do(http.MethodGet, "/products", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
	if c.backend.RefreshCount() != 1 {
		t.Errorf("refreshes = %d, want 1", c.backend.RefreshCount())
	}

	w = c.do(http.MethodGet, "/session", "", "")
	var s resp.SessionResp
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	if s.Authenticated || !s.Expired.Shown || s.Expired.Reason != constraints.ReasonSessionExpired {
		t.Errorf("session = %+v", s)
	}

	w = c.do(http.MethodGet, "/signin", "", "")
	var page resp.PageResp
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if w.Code != http.StatusOK || page.Notice != constraints.ReasonSessionExpired {
		t.Errorf("sign-in page after expiry: %d %+v", w.Code, page)
	}
}

func TestLogout(t *testing.T) {
	c := newConsole(t)
	c.loginAs("USER")
	c.backend.DropLogout.Store(true)

	w := c.do(http.MethodPost, "/logout", "", "")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != constraints.PathSignIn {
		t.Errorf("logout: %d %s", w.Code, w.Header().Get("Location"))
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Errorf("cookie not cleared: %q", w.Header().Get("Set-Cookie"))
	}
	if c.session.Token() != "" || c.session.Signal().Shown {
		t.Error("logout should clear the token without the expiry prompt")
	}
}

func TestNotificationSettings(t *testing.T) {
	c := newConsole(t)
	c.loginAs("USER")

	tests := []struct {
		body string
		code int
	}{
		{`{"lowStockThreshold":-1}`, http.StatusBadRequest},
		{`{}`, http.StatusBadRequest},
		{`{"lowStockThreshold":0}`, http.StatusOK},
		{`{"lowStockThreshold":25}`, http.StatusOK},
	}
	for _, tt := range tests {
		if w := c.do(http.MethodPut, constraints.PathSettings, "application/json", tt.body); w.Code != tt.code {
			t.Errorf("PUT %s: %d, want %d", tt.body, w.Code, tt.code)
		}
	}

	w := c.do(http.MethodGet, constraints.PathSettings, "", "")
	var n model.NotificationSettings
	_ = json.Unmarshal(w.Body.Bytes(), &n)
	if n.LowStockThreshold != 25 {
		t.Errorf("threshold = %d, want 25", n.LowStockThreshold)
	}
}

func TestPublicAndInfraRoutes(t *testing.T) {
	c := newConsole(t)
	for _, path := range []string{"/terms", "/privacy", "/signin", "/health", "/metrics", "/session"} {
		if w := c.do(http.MethodGet, path, "", ""); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
}

func TestTraceIDReachesBackend(t *testing.T) {
	c := newConsole(t)
	c.loginAs("USER")
	c.backend.SetResource("/customer", v1.Page[model.Customer]{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/customers", nil)
	req.Header.Set(client.TraceHeader, "trace-42")
	c.router.ServeHTTP(w, req)

	reqs := c.backend.Requests("/customer")
	if w.Code != http.StatusOK || len(reqs) != 1 || reqs[0].TraceID != "trace-42" {
		t.Errorf("code = %d, backend requests = %+v", w.Code, reqs)
	}
}

func TestSessionEvents(t *testing.T) {
	c := newConsole(t)
	c.loginAs("USER")
	srv := httptest.NewServer(c.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+constraints.PathSessionEvents, nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	reader := bufio.NewReader(res.Body)

	waitFor := func(prefix string) string {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("stream ended waiting for %q: %v", prefix, err)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		}
	}

	waitFor("event:state")
	c.session.Expire(context.Background(), "test", constraints.ReasonSessionExpired)
	waitFor("event:session")
	data := waitFor("data:")

	var e v1.SessionEvent
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data:")), &e); err != nil {
		t.Fatalf("event data %q: %v", data, err)
	}
	if e.Type != v1.EventExpired || e.Reason != constraints.ReasonSessionExpired || e.Revision == 0 {
		t.Errorf("event = %+v", e)
	}
}
