package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pwreset/internal/logger"
	"pwreset/internal/models"
	"pwreset/internal/services"
	helpers "pwreset/internal/utils/helpres"
	"pwreset/internal/utils/validate"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// passwordResetter — рядом с PasswordHandler
type passwordResetter interface {
	RequestReset(ctx context.Context, email string) (*models.VerificationResult, error)
	VerifyCode(ctx context.Context, email, code string) (*models.VerificationResult, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type PasswordHandler struct {
	svc passwordResetter
}

func NewPasswordHandler(svc passwordResetter) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

// decodeJSON читает тело запроса и проверяет теги validate.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// SendVerification godoc
// @Summary Запрос кода восстановления пароля
// @Description Отправляет код на email. Ответ одинаковый, даже если e-mail не зарегистрирован.
// @Tags password
// @Accept json
// @Produce json
// @Param input body models.VerificationRequest true "Email пользователя"
// @Success 200 {object} models.VerificationResult
// @Failure 400 {object} helpers.Response
// @Failure 500 {object} helpers.Response
// @Router /send_verification [post]
func (h *PasswordHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req models.VerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Warn("Невалидный payload в SendVerification", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Email is required")
		return
	}

	res, err := h.svc.RequestReset(r.Context(), *req.Email)
	switch {
	case err == nil:
		helpers.JSON(w, http.StatusOK, res)
	case errors.Is(err, services.ErrInvalidEmail):
		helpers.Error(w, http.StatusBadRequest, "Invalid email format")
	case errors.Is(err, services.ErrMailDelivery):
		helpers.Error(w, http.StatusInternalServerError, "Error when sending email")
	case errors.Is(err, services.ErrSaveCode):
		helpers.Error(w, http.StatusInternalServerError, "Error saving data")
	default:
		log.Error("Сбой при запросе кода восстановления", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// VerifyCode godoc
// @Summary Проверка кода восстановления
// @Description Проверяет код и срок его действия; при успехе выдаёт reset_token для смены пароля.
// @Tags password
// @Accept json
// @Produce json
// @Param input body models.VerifyCodeRequest true "Email и код"
// @Success 200 {object} models.VerificationResult
// @Failure 400 {object} helpers.Response
// @Failure 500 {object} helpers.Response
// @Router /verify_code [post]
func (h *PasswordHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req models.VerifyCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Warn("Невалидный payload в VerifyCode", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Email and code are required")
		return
	}

	res, err := h.svc.VerifyCode(r.Context(), *req.Email, *req.Code)
	switch {
	case err == nil:
		helpers.JSON(w, http.StatusOK, res)
	case errors.Is(err, services.ErrInvalidCode):
		helpers.Error(w, http.StatusBadRequest, "Invalid code or time expired")
	default:
		log.Error("Сбой при проверке кода", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Code verification error")
	}
}

// ResetPassword godoc
// @Summary Смена пароля по reset_token
// @Description Устанавливает новый пароль; код восстановления после этого недействителен.
// @Tags password
// @Accept json
// @Produce json
// @Param input body models.ResetPasswordRequest true "Токен и новый пароль"
// @Success 200 {object} helpers.Response
// @Failure 400 {object} helpers.Response
// @Failure 500 {object} helpers.Response
// @Router /reset_password [post]
func (h *PasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req models.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Warn("Невалидный payload в ResetPassword", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Reset token and new password are required")
		return
	}

	err := h.svc.ResetPassword(r.Context(), req.ResetToken, req.NewPassword)
	switch {
	case err == nil:
		helpers.Message(w, http.StatusOK, services.MsgPasswordReset)
	case errors.Is(err, services.ErrWeakPassword):
		helpers.Error(w, http.StatusBadRequest, "Password must be at least 8 characters")
	case errors.Is(err, services.ErrInvalidResetToken):
		helpers.Error(w, http.StatusBadRequest, "Invalid or expired reset token")
	default:
		log.Error("Сбой при смене пароля", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
