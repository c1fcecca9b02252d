package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"qaforum_backend/database"
	"qaforum_backend/internal/auth"
	"qaforum_backend/internal/config"
	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/services"
	"qaforum_backend/internal/services/dto"
	"qaforum_backend/pkg/apperrors"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	usernames    []string
	password     string
	withQuestion bool
	issueTokens  bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Создаёт тестовых пользователей и вопрос для локальной разработки",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringSliceVar(&usernames, "users", []string{"alice", "bob", "carol"}, "usernames to create")
	rootCmd.Flags().StringVar(&password, "password", "password123", "password for every seeded user")
	rootCmd.Flags().BoolVar(&withQuestion, "question", true, "create a sample question authored by the first user")
	rootCmd.Flags().BoolVar(&issueTokens, "api-tokens", false, "issue an API token for every user (replaces existing ones)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.Server.Env)

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	ctx := cmd.Context()
	svc := services.NewServiceContainer(services.ContainerOptions{NotificationTTL: cfg.Notifications.TTL})
	ttl := time.Duration(cfg.JWT.TTL) * time.Minute

	var users []*models.User
	for _, name := range usernames {
		user, err := ensureUser(ctx, db, svc.UserService, name)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", name, err)
		}
		users = append(users, user)

		token, err := auth.GenerateToken(cfg.JWT.Secret, user.ID, ttl)
		if err != nil {
			return err
		}
		fmt.Printf("%-10s id=%s\n  jwt=%s\n", user.Username, user.ID, token)

		if issueTokens {
			apiToken, err := svc.UserService.IssueAPIToken(ctx, db, user.ID)
			if err != nil {
				return err
			}
			fmt.Printf("  api=%s\n", apiToken)
		}
	}

	if withQuestion && len(users) > 0 {
		q, err := svc.QuestionService.Create(ctx, db, users[0].ID, &dto.CreateQuestionRequest{
			Title:   "How do I cancel a running goroutine?",
			Content: "I start a worker goroutine per request and need to stop it when the client disconnects.",
		})
		if err != nil {
			return err
		}
		fmt.Printf("question   id=%s\n", q.ID)
	}

	logger.Info("Seed completed", "users", len(users))
	return nil
}

// ensureUser регистрирует пользователя или возвращает существующего
func ensureUser(ctx context.Context, db *gorm.DB, users services.UserService, username string) (*models.User, error) {
	user, err := users.Register(ctx, db, username, username+"@example.com", password)
	if err == nil {
		return user, nil
	}
	if apperrors.CodeOf(err) != apperrors.CodeConflict {
		return nil, err
	}

	existing, findErr := repositories.NewUserRepository().FindByUsername(db.WithContext(ctx), username)
	if findErr != nil {
		return nil, errors.Join(err, findErr)
	}
	return existing, nil
}
