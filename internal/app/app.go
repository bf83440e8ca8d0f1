package app

import (
	"pwreset/internal/config"
	"pwreset/internal/db"
	"pwreset/internal/db/migrate"
	"pwreset/internal/handlers"
	"pwreset/internal/logger"
	"pwreset/internal/repository"
	"pwreset/internal/routes"
	"pwreset/internal/services"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func InitApp(cfg *config.Config) (*mux.Router, *pgxpool.Pool, error) {
	if cfg.DbAutoMigrate {
		if err := migrate.Run(cfg.GetDSN(), "up"); err != nil {
			return nil, nil, err
		}
		logger.Log.Info("Миграции применены", zap.String("dsn", cfg.GetDSNSafe()))
	}

	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)

	// Сервисы
	emailService := services.NewEmailService(cfg)
	passwordService := services.NewPasswordService(userRepo, emailService, cfg)

	// Хендлеры
	serviceHandler := handlers.NewServiceHandler(passwordService)
	passwordHandler := handlers.NewPasswordHandler(passwordService)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, serviceHandler, passwordHandler)

	return router, conn, nil
}
