package main

import (
	"context"
	"os"

	_ "github.com/KarpovAlexandrGo/task-tracker/docs" // Swagger, генерируется swag
	"github.com/KarpovAlexandrGo/task-tracker/internal/app"
	"github.com/KarpovAlexandrGo/task-tracker/pkg/logger"
)

// @title           Task Tracker API
// @version         1.0
// @description     Личный трекер задач: регистрация, вход и CRUD задач текущего пользователя.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey ApiKeyAuth
// @in                         header
// @name                       Authorization
// @description                Токен в виде "Bearer <token>"

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load config")
	}

	a, err := app.NewApp(context.Background(), cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize app")
	}

	os.Exit(a.Run())
}
