package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/titipin/backend/internal/config"
)

// JWTAuth validates the bearer token and forwards the authenticated user id
// to handlers via the X-User-ID header. Identity lives in the token; this
// service never stores accounts itself.
func JWTAuth(cfg config.JWTConfig, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(cfg.Secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
				logger.Warn("jwt issuer mismatch")
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			userID := subject(claims)
			if userID == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			// Strip any spoofed value before trusting the header downstream.
			ctx.Request.Header.Set("X-User-ID", userID)

			next(ctx)
		}
	}
}

func subject(claims jwt.MapClaims) string {
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
