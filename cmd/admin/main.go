package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/config"
	"Redrow_Exposed/internal/logger"
	"Redrow_Exposed/internal/metrics"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/repository/mysql"
	"Redrow_Exposed/internal/repository/redis"
	"Redrow_Exposed/internal/service"
)

// env 每个子命令共享的配置、日志与数据库连接
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log)
	db, err := mysql.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

var rootCmd = &cobra.Command{
	Use:           "redrow-admin",
	Short:         "Operational commands for the RedrowExposed backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		if err = mysql.AutoMigrate(e.db); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		e.log.Info("migration finished", zap.Int("tables", len(model.All())))
		return nil
	},
}

var syncTemplatesCmd = &cobra.Command{
	Use:   "sync-templates",
	Short: "Upsert the built-in email templates into the database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		// 同步模板不发信，mailer 与去重不会被调用
		svc := service.NewEmailService(
			mysql.NewEmailRepository(e.db),
			pkg.NewSMTPMailer(e.cfg.SMTP),
			nil,
			service.DefaultRetryPolicy(e.cfg.Email.RetryAttempts),
			metrics.New("redrow_admin"),
			e.log.Named("email"),
		)
		res, err := svc.SyncTemplates(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created: %s\nupdated: %s\n",
			strings.Join(res.Created, ", "), strings.Join(res.Updated, ", "))
		return nil
	},
}

var grantRoleCmd = &cobra.Command{
	Use:   "grant-role <email> <user|moderator|admin>",
	Short: "Change a user's role and revoke their session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := model.Role(strings.ToLower(args[1]))
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", args[1])
		}
		e, err := setup()
		if err != nil {
			return err
		}
		return grantRole(cmd.Context(), e, strings.ToLower(strings.TrimSpace(args[0])), role)
	},
}

func grantRole(ctx context.Context, e *env, email string, role model.Role) error {
	users := &mysql.UserRepository{DB: e.db}
	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find user %s: %w", email, err)
	}
	if err = users.UpdateRole(ctx, u.ID, role); err != nil {
		return err
	}

	rdb, err := redis.NewClient(e.cfg.Redis)
	if err != nil {
		e.log.Warn("redis unavailable, existing session keeps old role until expiry", zap.Error(err))
		return nil
	}
	defer func() { _ = rdb.Close() }()
	tokens := &redis.TokenRepository{Client: rdb, TTL: e.cfg.JWT.AccessTTL, RefreshTTL: e.cfg.JWT.RefreshTTL}
	if err = tokens.DeleteUserToken(ctx, u.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	e.log.Info("role granted", zap.String("email", email), zap.String("role", string(role)))
	return nil
}

func main() {
	rootCmd.AddCommand(migrateCmd, syncTemplatesCmd, grantRoleCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
