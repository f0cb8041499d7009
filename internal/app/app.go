package app

import (
	"context"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/config"
	"Redrow_Exposed/internal/handler"
	"Redrow_Exposed/internal/metrics"
	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/repository/mysql"
	"Redrow_Exposed/internal/repository/redis"
	"Redrow_Exposed/internal/router"
	"Redrow_Exposed/internal/service"
	"Redrow_Exposed/internal/storage"
)

// Deps 外部依赖，由 cmd 或测试注入
type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Redis   *goredis.Client
	Store   storage.ObjectStore
	Mailer  service.Mailer
	Metrics *metrics.Metrics
	// Publish outbox 事件的外部投递（kafka 或日志），在邮件触发器之前执行
	Publish service.Sender
}

type App struct {
	Engine  *gin.Engine
	Relayer *service.OutboxRelayer
	Email   *service.EmailService
	Users   *service.UserService
}

// New 组装 repository -> service -> handler -> router
func New(d Deps) *App {
	cfg := d.Config
	issuer := pkg.NewTokenIssuer(cfg.JWT)

	tokens := &redis.TokenRepository{Client: d.Redis, TTL: cfg.JWT.AccessTTL, RefreshTTL: cfg.JWT.RefreshTTL}
	codes := &redis.CodeRepository{Client: d.Redis}
	dedup := &redis.DedupRepository{Client: d.Redis, TTL: cfg.Email.DedupTTL}

	userRepo := &mysql.UserRepository{DB: d.DB}
	codeSvc := service.NewCodeService(codes, d.Mailer)
	userSvc := service.NewUserService(userRepo, tokens, codeSvc, issuer, d.Log.Named("user"))
	emailSvc := service.NewEmailService(
		mysql.NewEmailRepository(d.DB),
		d.Mailer,
		dedup,
		service.DefaultRetryPolicy(cfg.Email.RetryAttempts),
		d.Metrics,
		d.Log.Named("email"),
	)
	evidenceSvc := service.NewEvidenceService(
		mysql.NewEvidenceRepository(d.DB),
		mysql.NewPhotoRepository(d.DB),
		userRepo,
		d.Store,
		cfg.Storage.MaxUploadSize,
		d.Log.Named("evidence"),
	)
	claimSvc := service.NewClaimService(&mysql.ClaimRepository{DB: d.DB}, userRepo, d.Log.Named("claim"))
	complaintSvc := service.NewComplaintService(mysql.NewComplaintRepository(d.DB))
	faqSvc := service.NewListService(mysql.NewFAQRepository(d.DB))
	socialSvc := service.NewListService(mysql.NewSocialPostRepository(d.DB))
	articleSvc := service.NewArticleService(mysql.NewArticleRepository(d.DB), d.Log.Named("article"))
	gloSvc := service.NewGLOService(&mysql.GLORepository{DB: d.DB}, d.Log.Named("glo"))
	analyticsSvc := service.NewAnalyticsService(&mysql.AnalyticsRepository{DB: d.DB})

	senders := []service.Sender{}
	if d.Publish != nil {
		senders = append(senders, d.Publish)
	}
	senders = append(senders, emailSvc.TriggerSender)
	relayer := service.NewOutboxRelayer(
		&mysql.OutboxRepository{DB: d.DB},
		cfg.Kafka.BatchSize,
		cfg.Kafka.RelayInterval,
		d.Metrics,
		d.Log.Named("outbox"),
		senders...,
	)

	engine := router.New(router.Handlers{
		User:       handler.NewUserHandler(userSvc, codeSvc),
		Evidence:   handler.NewEvidenceHandler(evidenceSvc),
		Claim:      handler.NewClaimHandler(claimSvc),
		Complaint:  handler.NewComplaintHandler(complaintSvc),
		FAQ:        handler.NewContentHandler[model.FAQ, handler.FAQInput](faqSvc),
		Article:    handler.NewArticleHandler(articleSvc),
		SocialPost: handler.NewContentHandler[model.SocialPost, handler.SocialPostInput](socialSvc),
		GLO:        handler.NewGLOHandler(gloSvc),
		Analytics:  handler.NewAnalyticsHandler(analyticsSvc),
		Email:      handler.NewEmailHandler(emailSvc),
	}, router.Options{
		Log:         d.Log,
		Metrics:     d.Metrics,
		Auth:        middleware.NewAuth(issuer, tokens),
		CORSOrigins: cfg.HTTP.CORSAllowOrigins,
		MaxBodySize: cfg.HTTP.MaxBodySize,
		Ready: func(ctx context.Context) error {
			sqlDB, err := d.DB.DB()
			if err != nil {
				return err
			}
			if err = sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return d.Redis.Ping(ctx).Err()
		},
	})

	return &App{Engine: engine, Relayer: relayer, Email: emailSvc, Users: userSvc}
}
