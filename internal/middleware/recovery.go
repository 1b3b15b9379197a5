package middleware

import (
	"chapterauth/internal/logger"
	helpers "chapterauth/internal/utils/helpers"
	"errors"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// Recoverer превращает панику обработчика в 500 с тем же телом, что и у остальных ошибок.
// http.ErrAbortHandler пробрасывается дальше: так сервер молча рвёт соединение.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger.WithCtx(r.Context()).Error("Паника в обработчике",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			helpers.Error(w, http.StatusInternalServerError, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
