package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pwreset/internal/logger"
	"pwreset/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var ErrUserNotFound = errors.New("user not found")

// DB — то подмножество pgxpool.Pool, которым пользуется репозиторий.
// Каждый вызов берёт соединение из пула только на время операции.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type UserRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateResetCode(ctx context.Context, userID int64, code string, expiry time.Time) (bool, error)
	ClearResetCode(ctx context.Context, userID int64) error
	UpdatePassword(ctx context.Context, userID int64, code string, now time.Time, passwordHash string) (bool, error)
	Ping(ctx context.Context) error
}

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	logger.Log.Debug("Поиск пользователя по email (repo)", zap.String("email", email))
	query := `SELECT id, email, password_hash, reset_password_code, reset_password_code_expiry
	FROM users
	WHERE email = $1`

	var u models.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.ResetPasswordCode,
		&u.ResetPasswordCodeExpiry,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Log.Error("Ошибка поиска пользователя (repo)", zap.Error(err))
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

// UpdateResetCode записывает код и срок его действия.
// true — если обновлена ровно одна строка; иначе транзакция откатывается.
func (r *UserRepository) UpdateResetCode(ctx context.Context, userID int64, code string, expiry time.Time) (bool, error) {
	ok, err := r.inTx(ctx, func(tx pgx.Tx) (bool, error) {
		tag, err := tx.Exec(ctx,
			`UPDATE users SET reset_password_code = $1, reset_password_code_expiry = $2 WHERE id = $3`,
			code, expiry.UTC(), userID,
		)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	})
	if err != nil {
		logger.Log.Error("Ошибка сохранения кода сброса (repo)", zap.Int64("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("update reset code: %w", err)
	}
	logger.Log.Info("Обновление кода сброса (repo)", zap.Int64("user_id", userID), zap.Bool("updated", ok))
	return ok, nil
}

func (r *UserRepository) ClearResetCode(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET reset_password_code = NULL, reset_password_code_expiry = NULL WHERE id = $1`,
		userID,
	)
	if err != nil {
		logger.Log.Error("Ошибка очистки кода сброса (repo)", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("clear reset code: %w", err)
	}
	return nil
}

// UpdatePassword ставит новый хеш пароля и гасит код сброса в одной транзакции.
// Строка меняется, только пока в ней лежит тот же код и он не истёк к now:
// из двух сбросов с одним кодом проходит один, свежий код из RequestReset не затирается.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, code string, now time.Time, passwordHash string) (bool, error) {
	ok, err := r.inTx(ctx, func(tx pgx.Tx) (bool, error) {
		tag, err := tx.Exec(ctx,
			`UPDATE users
			SET password_hash = $1, reset_password_code = NULL, reset_password_code_expiry = NULL
			WHERE id = $2 AND reset_password_code = $3 AND reset_password_code_expiry > $4`,
			passwordHash, userID, code, now.UTC(),
		)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	})
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.Int64("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("update password: %w", err)
	}
	logger.Log.Info("Обновление пароля (repo)", zap.Int64("user_id", userID), zap.Bool("updated", ok))
	return ok, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// inTx коммитит только при fn == (true, nil); во всех остальных случаях,
// включая панику в fn, транзакция откатывается.
func (r *UserRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) (bool, error)) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	done := false
	defer func() {
		if !done {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Log.Warn("Ошибка отката транзакции (repo)", zap.Error(rbErr))
			}
		}
	}()

	ok, err := fn(tx)
	if err != nil || !ok {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	done = true
	return true, nil
}
