package routes

import (
	"net/http"

	"pwreset/internal/handlers"
	"pwreset/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	serviceHandler *handlers.ServiceHandler,
	passwordHandler *handlers.PasswordHandler,
) {
	router.Use(middleware.RequestID, middleware.Logging, middleware.Recoverer)

	router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	router.HandleFunc("/", serviceHandler.Index).Methods(http.MethodGet)
	router.HandleFunc("/health", serviceHandler.Health).Methods(http.MethodGet)

	router.HandleFunc("/send_verification", passwordHandler.SendVerification).Methods(http.MethodPost)
	router.HandleFunc("/verify_code", passwordHandler.VerifyCode).Methods(http.MethodPost)
	router.HandleFunc("/reset_password", passwordHandler.ResetPassword).Methods(http.MethodPost)
}
