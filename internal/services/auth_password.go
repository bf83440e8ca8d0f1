package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pwreset/internal/config"
	"pwreset/internal/logger"
	"pwreset/internal/models"
	"pwreset/internal/repository"
	"pwreset/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MsgCodeSent      = "If the user exists, the code is sent to the email"
	MsgCodeCorrect   = "The code is correct"
	MsgPasswordReset = "Password has been reset"

	minPasswordLen = 8
)

var (
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrInvalidCode       = errors.New("invalid code or time expired")
	ErrStorage           = errors.New("storage failure")
	ErrSaveCode          = fmt.Errorf("save reset code: %w", ErrStorage)
	ErrMailDelivery      = errors.New("mail delivery failed")
	ErrWeakPassword      = errors.New("password too short")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// CodeSender — доставка кода пользователю (SMTP в проде).
type CodeSender interface {
	SendResetCode(ctx context.Context, to, code string) error
}

type PasswordService struct {
	repo        repository.UserRepo
	sender      CodeSender
	codeLength  int
	codeTTL     time.Duration
	tokenSecret string
	tokenTTL    time.Duration
	bcryptCost  int

	now      func() time.Time
	generate func(length int) (string, error)
}

func NewPasswordService(repo repository.UserRepo, sender CodeSender, cfg *config.Config) *PasswordService {
	codeTTL := cfg.ResetCodeTTL
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	tokenTTL := cfg.ResetTokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 10 * time.Minute
	}
	return &PasswordService{
		repo:        repo,
		sender:      sender,
		codeLength:  cfg.ResetCodeLength,
		codeTTL:     codeTTL,
		tokenSecret: cfg.JWTSecret,
		tokenTTL:    tokenTTL,
		bcryptCost:  12,
		now:         func() time.Time { return time.Now().UTC() },
		generate:    GenerateCode,
	}
}

func codeSent() *models.VerificationResult {
	return &models.VerificationResult{Success: true, Message: MsgCodeSent}
}

// RequestReset генерирует код, сохраняет его и отправляет письмо.
// Для несуществующего email ответ тот же, что и для успешной отправки.
func (s *PasswordService) RequestReset(ctx context.Context, email string) (*models.VerificationResult, error) {
	log := logger.WithCtx(ctx)
	email = utils.NormalizeEmail(email)
	masked := utils.MaskEmail(email)

	if !utils.LooksLikeEmail(email) {
		log.Warn("Невалидный email при запросе кода", zap.String("email_masked", masked))
		return nil, ErrInvalidEmail
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		log.Warn("Пользователь не найден при запросе кода", zap.String("email_masked", masked))
		return codeSent(), nil
	}
	if err != nil {
		log.Error("Ошибка поиска пользователя при запросе кода", zap.String("email_masked", masked), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	code, err := s.generate(s.codeLength)
	if err != nil {
		log.Error("Ошибка генерации кода", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("generate code: %w", err)
	}
	expiry := s.now().Add(s.codeTTL)

	// Код сохраняется до отправки; при сбое отправки он очищается.
	ok, err := s.repo.UpdateResetCode(ctx, user.ID, code, expiry)
	if err != nil || !ok {
		log.Error("Не удалось сохранить код сброса",
			zap.Int64("user_id", user.ID),
			zap.Bool("updated", ok),
			zap.Error(err),
		)
		return nil, ErrSaveCode
	}

	if err := s.sender.SendResetCode(ctx, email, code); err != nil {
		log.Error("Ошибка отправки письма с кодом",
			zap.Int64("user_id", user.ID),
			zap.String("email_masked", masked),
			zap.Error(err),
		)
		if clearErr := s.repo.ClearResetCode(context.WithoutCancel(ctx), user.ID); clearErr != nil {
			log.Error("Не удалось откатить код после сбоя отправки", zap.Int64("user_id", user.ID), zap.Error(clearErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	log.Info("Код восстановления отправлен",
		zap.Int64("user_id", user.ID),
		zap.Time("expires_at", expiry),
	)
	res := codeSent()
	res.Code = code
	return res, nil
}

// VerifyCode сверяет код и срок его действия. Код при этом не гасится:
// он расходуется в ResetPassword.
func (s *PasswordService) VerifyCode(ctx context.Context, email, code string) (*models.VerificationResult, error) {
	log := logger.WithCtx(ctx)
	email = utils.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	masked := utils.MaskEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		log.Warn("Проверка кода для неизвестного email", zap.String("email_masked", masked))
		return nil, ErrInvalidCode
	}
	if err != nil {
		log.Error("Ошибка поиска пользователя при проверке кода", zap.String("email_masked", masked), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	now := s.now()
	if !user.HasValidCode(code, now) {
		log.Warn("Неверный или просроченный код", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCode
	}

	res := &models.VerificationResult{Success: true, Message: MsgCodeCorrect}
	token, err := utils.GenerateResetToken(s.tokenSecret, user.ID, user.Email, code, now, s.tokenTTL)
	if err != nil {
		// код верный; без токена клиент просто не сможет сменить пароль
		log.Error("Не удалось выпустить токен сброса", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		res.ResetToken = token
	}

	log.Info("Код подтверждён", zap.Int64("user_id", user.ID))
	return res, nil
}

// ResetPassword меняет пароль по токену из VerifyCode и гасит код.
func (s *PasswordService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	log := logger.WithCtx(ctx)

	if len(newPassword) < minPasswordLen {
		log.Warn("Слишком короткий новый пароль")
		return ErrWeakPassword
	}

	now := s.now()
	claims, err := utils.ParseResetToken(s.tokenSecret, resetToken, now)
	if err != nil {
		log.Warn("Невалидный токен сброса", zap.Error(err))
		return ErrInvalidResetToken
	}

	user, err := s.repo.FindByEmail(ctx, claims.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		log.Warn("Пользователь из токена сброса не найден", zap.String("sub", claims.Subject))
		return ErrInvalidResetToken
	}
	if err != nil {
		log.Error("Ошибка поиска пользователя при сбросе пароля", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if strconv.FormatInt(user.ID, 10) != claims.Subject ||
		user.ResetPasswordCode == nil ||
		!user.HasValidCode(*user.ResetPasswordCode, now) ||
		utils.CodeFingerprint(*user.ResetPasswordCode) != claims.Cfp {
		log.Warn("Токен сброса не соответствует текущему коду", zap.Int64("user_id", user.ID))
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		log.Error("Ошибка генерации хеша пароля", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}

	ok, err := s.repo.UpdatePassword(ctx, user.ID, *user.ResetPasswordCode, now, string(hash))
	if err != nil {
		log.Error("Ошибка обновления пароля", zap.Int64("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !ok {
		log.Warn("Пароль не обновлён: код уже израсходован или заменён", zap.Int64("user_id", user.ID))
		return ErrInvalidResetToken
	}

	log.Info("Пароль успешно сброшен", zap.Int64("user_id", user.ID))
	return nil
}

// Ping — доступность хранилища для /health.
func (s *PasswordService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
