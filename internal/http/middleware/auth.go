package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"webpulse/internal/auth"
	"webpulse/internal/config"
	dbpkg "webpulse/internal/db"
)

// KeyedHandler is a beacon handler that receives the authenticated API key
// as an explicit parameter. The principal is threaded through, never stashed
// on ambient request state.
type KeyedHandler func(ctx *fasthttp.RequestCtx, key *dbpkg.APIKey)

// UserHandler is a dashboard handler that receives the authenticated user
// as an explicit parameter.
type UserHandler func(ctx *fasthttp.RequestCtx, user *dbpkg.User)

// APIKeyAuth validates tracking keys for beacon endpoints. The key is read
// from the X-Analytics-Key header, falling back to the "api_key" field of
// the JSON body the trackers send.
func APIKeyAuth(gdb *gorm.DB) func(KeyedHandler) fasthttp.RequestHandler {
	return func(next KeyedHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Analytics-Key")))
			if raw == "" {
				var body struct {
					APIKey string `json:"api_key"`
				}
				if err := json.Unmarshal(ctx.PostBody(), &body); err == nil {
					raw = strings.TrimSpace(body.APIKey)
				}
			}
			if raw == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString("missing API key")
				return
			}

			var key dbpkg.APIKey
			if err := gdb.Where("key = ? AND active = ?", raw, true).First(&key).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.SetStatusCode(fasthttp.StatusUnauthorized)
					ctx.SetBodyString("invalid API key")
					return
				}
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("database error")
				return
			}

			next(ctx, &key)
		}
	}
}

// BearerAuth validates dashboard access tokens and loads the user they
// belong to.
func BearerAuth(gdb *gorm.DB, cfg *config.Config) func(UserHandler) fasthttp.RequestHandler {
	secret := []byte(cfg.JWTSecret)
	return func(next UserHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			header := ctx.Request.Header.Peek("Authorization")
			if len(header) == 0 {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString("missing Authorization header")
				return
			}

			const prefix = "Bearer "
			if !bytes.HasPrefix(header, []byte(prefix)) {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString("invalid Authorization header")
				return
			}

			token := strings.TrimSpace(string(header[len(prefix):]))
			claims, err := auth.ValidateToken(secret, token, auth.TokenTypeAccess)
			if err != nil {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString("invalid or expired token")
				return
			}

			var user dbpkg.User
			if err := gdb.First(&user, claims.UserID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.SetStatusCode(fasthttp.StatusUnauthorized)
					ctx.SetBodyString("unknown user")
					return
				}
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("database error")
				return
			}
			if !user.IsActive {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				ctx.SetBodyString("user account is disabled")
				return
			}

			next(ctx, &user)
		}
	}
}
