package handlers

import (
	"errors"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"webpulse/internal/auth"
	"webpulse/internal/config"
	dbpkg "webpulse/internal/db"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func writeTokenPair(ctx *fasthttp.RequestCtx, cfg *config.Config, userID uint, username string) {
	secret := []byte(cfg.JWTSecret)
	access, err := auth.GenerateToken(secret, userID, username, auth.TokenTypeAccess, cfg.AccessTokenTTL)
	if err != nil {
		errDetail(ctx, fasthttp.StatusInternalServerError, "failed to issue token")
		return
	}
	refresh, err := auth.GenerateToken(secret, userID, username, auth.TokenTypeRefresh, cfg.RefreshTokenTTL)
	if err != nil {
		errDetail(ctx, fasthttp.StatusInternalServerError, "failed to issue token")
		return
	}
	jsonResponse(ctx, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(cfg.AccessTokenTTL.Seconds()),
	})
}

// Login exchanges dashboard credentials for an access/refresh token pair.
func Login(gdb *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req loginRequest
		if !readJSON(ctx, &req) {
			return
		}
		if req.Username == "" || req.Password == "" {
			errDetail(ctx, fasthttp.StatusBadRequest, "username and password are required")
			return
		}

		var user dbpkg.User
		if err := gdb.Where("username = ?", req.Username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errDetail(ctx, fasthttp.StatusUnauthorized, "Invalid credentials")
				return
			}
			errDetail(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			errDetail(ctx, fasthttp.StatusUnauthorized, "Invalid credentials")
			return
		}
		if !user.IsActive {
			errDetail(ctx, fasthttp.StatusForbidden, "User account is disabled")
			return
		}

		writeTokenPair(ctx, cfg, user.ID, user.Username)
	}
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func Refresh(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req refreshRequest
		if !readJSON(ctx, &req) {
			return
		}

		claims, err := auth.ValidateToken([]byte(cfg.JWTSecret), req.RefreshToken, auth.TokenTypeRefresh)
		if err != nil {
			errDetail(ctx, fasthttp.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}

		writeTokenPair(ctx, cfg, claims.UserID, claims.Username)
	}
}
