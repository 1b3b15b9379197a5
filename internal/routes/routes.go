package routes

import (
	"chapterauth/internal/handlers"
	"chapterauth/internal/middleware"
	"chapterauth/internal/models"
	"net/http"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	passwordHandler *handlers.PasswordHandler,
	jwtSecret string,
) {
	router.Use(middleware.RequestID, middleware.Recoverer, middleware.Logging)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	password := api.PathPrefix("/password").Subrouter()
	password.HandleFunc("/forgot", passwordHandler.Forgot).Methods(http.MethodPost)
	password.HandleFunc("/verify", passwordHandler.Verify).Methods(http.MethodPost)
	password.HandleFunc("/reset", passwordHandler.Reset).Methods(http.MethodPost)

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth(jwtSecret))

	protected.HandleFunc("/profile", authHandler.Profile).Methods(http.MethodGet)

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.OnlyRole(models.RoleAdmin))
	admin.HandleFunc("/users", authHandler.GetUserByEmail).Methods(http.MethodGet)
}
