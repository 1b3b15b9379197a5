package middleware

import (
	"chapterauth/internal/logger"
	"chapterauth/internal/reqctx"
	"chapterauth/internal/utils"
	helpers "chapterauth/internal/utils/helpers"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// JWTAuth проверяет Bearer-токен и кладёт accountId и role в контекст.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				logger.WithCtx(r.Context()).Warn("JWTAuth: отсутствует токен")
				helpers.Error(w, http.StatusUnauthorized, "Missing token")
				return
			}

			claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("JWTAuth: неверный или просроченный токен", zap.Error(err))
				helpers.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if claims.AccountID == 0 || claims.Role == "" {
				logger.WithCtx(r.Context()).Warn("JWTAuth: недопустимый payload")
				helpers.Error(w, http.StatusUnauthorized, "Invalid token payload")
				return
			}

			ctx := reqctx.WithAccountID(r.Context(), claims.AccountID)
			ctx = reqctx.WithRole(ctx, claims.Role)

			logger.WithCtx(ctx).Debug("JWTAuth: токен валиден", zap.String("role", claims.Role))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
