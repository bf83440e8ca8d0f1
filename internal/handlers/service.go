package handlers

import (
	"context"
	"net/http"
	"time"

	"pwreset/internal/logger"
	helpers "pwreset/internal/utils/helpres"

	"go.uber.org/zap"
)

const serviceName = "Password Reset Service"

type pinger interface {
	Ping(ctx context.Context) error
}

type ServiceHandler struct {
	db  pinger
	now func() time.Time
}

func NewServiceHandler(db pinger) *ServiceHandler {
	return &ServiceHandler{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Index godoc
// @Summary Описание сервиса
// @Tags service
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *ServiceHandler) Index(w http.ResponseWriter, r *http.Request) {
	helpers.JSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"service":   serviceName,
		"timestamp": h.now().Format(time.RFC3339),
		"endpoints": map[string]string{
			"send_verification": "/send_verification (POST)",
			"verify_code":       "/verify_code (POST)",
			"reset_password":    "/reset_password (POST)",
			"health":            "/health (GET)",
		},
	})
}

// Health godoc
// @Summary Проверка живости и доступности БД
// @Tags service
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /health [get]
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := h.db.Ping(ctx); err != nil {
		logger.WithCtx(r.Context()).Warn("БД недоступна", zap.Error(err))
		dbStatus = "unhealthy"
	}

	helpers.JSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"service":   "healthy",
		"database":  dbStatus,
		"timestamp": h.now().Format(time.RFC3339),
	})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	helpers.Error(w, http.StatusNotFound, "Endpoint not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	helpers.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
