package backend

import (
	"context"
	"net/http"
	"time"

	"courrierkit/internal/shared"

	"github.com/golang-jwt/jwt/v5"
)

// User is the user block of a login response.
type User struct {
	ID       Flex   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleName string `json:"role_name"`
}

// Session is the outcome of a successful login.
type Session struct {
	Token  string        `json:"token"`
	User   User          `json:"user"`
	Role   string        `json:"role"`
	Claims jwt.MapClaims `json:"-"`
}

// ExpiresAt returns the exp claim, if any.
func (s *Session) ExpiresAt() (time.Time, bool) {
	exp, err := s.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subject returns the sub claim, falling back on id and userId.
func (s *Session) Subject() string {
	if sub, err := s.Claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	for _, key := range []string{"id", "userId"} {
		if v, ok := s.Claims[key]; ok && v != nil {
			return jsonScalar(v)
		}
	}
	return ""
}

// Expired reports whether the token is past its exp claim at now.
func (s *Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && now.After(exp)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts the credentials to /api/login and keeps the returned token on
// the client. The JWT claims are decoded without signature verification.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, loginRequest{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, shared.ErrMissingToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.Token, claims); err != nil {
		c.Logger.Warnf("Token is not a decodable JWT: %v", err)
	} else {
		sess.Claims = claims
	}

	c.Token = sess.Token
	return &sess, nil
}

// RBACMe returns the permissions payload of /api/rbac/me.
func (c *Client) RBACMe(ctx context.Context) (map[string]interface{}, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := c.do(ctx, http.MethodGet, "/api/rbac/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
