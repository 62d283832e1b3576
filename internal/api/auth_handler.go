package api

import (
	"errors"
	"net/http"

	"adminconsole/client"
	"adminconsole/internal/dto/req"
	"adminconsole/internal/dto/resp"
	"adminconsole/internal/service"
	"adminconsole/internal/session"
	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/constraints"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type AuthHandler struct {
	svc           *service.AuthService
	session       *session.Context
	adminRole     string
	secureCookies bool
}

func NewAuthHandler(svc *service.AuthService, sess *session.Context, adminRole string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		svc:           svc,
		session:       sess,
		adminRole:     adminRole,
		secureCookies: secureCookies,
	}
}

// SignInPage shows the sign-in page, with the expiry reason if the last
// session was ended for the operator.
func (h *AuthHandler) SignInPage(c *gin.Context) {
	r := resp.PageResp{Page: "signin"}
	if sig := h.session.Signal(); sig.Shown {
		r.Notice = sig.Reason
	}
	c.JSON(http.StatusOK, r)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var body req.SignInReq
	if err := c.ShouldBind(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.svc.Login(c.Request.Context(), v1.LoginRequest{Username: body.Username, Password: body.Password})
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		writeError(c, err)
		return
	}

	http.SetCookie(c.Writer, session.Cookie(token, h.secureCookies))
	if c.ContentType() == binding.MIMEPOSTForm {
		c.Redirect(http.StatusSeeOther, constraints.PathHome)
		return
	}
	c.JSON(http.StatusOK, resp.SignInResp{Redirect: constraints.PathHome})
}

// Logout always ends on the sign-in page, replacing the current entry.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.svc.Logout(c.Request.Context())
	http.SetCookie(c.Writer, session.ClearedCookie(h.secureCookies))
	c.Redirect(http.StatusSeeOther, constraints.PathSignIn)
}

func (h *AuthHandler) Session(c *gin.Context) {
	r := resp.SessionResp{
		Expired:   h.session.Signal(),
		Refreshes: h.session.Refreshes(),
	}
	if claims, err := h.svc.CurrentClaims(); err == nil {
		r.Authenticated = true
		r.Subject = claims.Subject
		r.Role = claims.ResolvedRole()
		r.Admin = claims.HasRole(h.adminRole)
		if !claims.ExpiresAt.IsZero() {
			exp := claims.ExpiresAt
			r.ExpiresAt = &exp
		}
	}
	c.JSON(http.StatusOK, r)
}
