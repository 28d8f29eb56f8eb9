package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
)

// HeaderSubject carries the authenticated token subject to handlers.
const HeaderSubject = "X-Auth-Subject"

// JWTAuth rejects requests without a valid HS256 bearer token signed with secret.
// A non-empty issuer must match the token's iss claim.
func JWTAuth(secret, issuer string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Only a verified token may set the subject.
			ctx.Request.Header.Del(HeaderSubject)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err == nil && !token.Valid {
				err = errors.New("token invalid")
			}
			if err == nil && issuer != "" && !claims.VerifyIssuer(issuer, true) {
				err = errors.New("issuer mismatch")
			}
			if err != nil {
				logger.Warn("invalid jwt token",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(err))
				unauthorized(ctx)
				return
			}

			if sub, ok := claims["sub"].(string); ok {
				ctx.Request.Header.Set(HeaderSubject, sub)
			}

			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), domain.ErrUnauthorized.Message))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
