package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stuti/apperr"
	"stuti/auth"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	memberIDKey = "memberId"
	claimsKey   = "claims"
	tokenKey    = "token"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type TokenBlacklist interface {
	Contains(ctx context.Context, token string) (bool, error)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Auth accepts requests carrying a valid, non-revoked Bearer token and stores
// the member id, claims and raw token on the context.
func Auth(tokens TokenParser, blacklist TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, apperr.New(apperr.Unauthenticated))
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			abort(c, err)
			return
		}
		memberID, err := claims.MemberID()
		if err != nil {
			abort(c, err)
			return
		}

		revoked, err := blacklist.Contains(c.Request.Context(), token)
		if err != nil {
			abort(c, fmt.Errorf("check blacklist: %w", err))
			return
		}
		if revoked {
			abort(c, apperr.New(apperr.BlacklistDetection))
			return
		}

		c.Set(memberIDKey, memberID)
		c.Set(claimsKey, claims)
		c.Set(tokenKey, token)
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// MemberID returns the authenticated member, or 0 outside Auth.
func MemberID(c *gin.Context) int64 {
	return c.GetInt64(memberIDKey)
}

func Claims(c *gin.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey)
	cl, _ := claims.(*auth.Claims)
	return cl
}

func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// Errors renders the last error a handler attached with c.Error. Domain errors
// keep their code and status; anything else is logged and hidden behind S001.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		status, body := Render(last.Err)
		if status >= http.StatusInternalServerError {
			log.WithFields(log.Fields{
				"method": c.Request.Method,
				"route":  c.FullPath(),
				"error":  last.Err,
			}).Error("Request failed")
		}
		c.JSON(status, body)
	}
}

func Render(err error) (int, ErrorResponse) {
	e, ok := apperr.From(err)
	if !ok {
		e = apperr.Wrap(apperr.UnknownServerError, err)
	}
	body := ErrorResponse{Code: e.Code.ID, Message: e.Code.Message}
	if e.Code.Kind == apperr.KindValidation {
		body.Detail = e.Detail
	}
	return e.Code.Status, body
}

// RequestLogger logs one line per request with its status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := log.Fields{
			"method":  c.Request.Method,
			"route":   route,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if memberID := MemberID(c); memberID != 0 {
			fields["memberId"] = memberID
		}

		entry := log.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("Request served")
		default:
			entry.Debug("Request served")
		}
	}
}
