package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hoodlink/internal/config"
	"hoodlink/internal/handler"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"
	"hoodlink/internal/repository/mysql"
	"hoodlink/internal/repository/redis"
	"hoodlink/internal/router"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	log, err := pkg.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat, "hoodlink")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mysql.InitDB(mysql.Options{DSN: cfg.MySQL.DSN, MaxOpen: cfg.MySQL.MaxOpen, MaxIdle: cfg.MySQL.MaxIdle})
	if err != nil {
		return err
	}
	// 自动建表
	if err := mysql.AutoMigrate(db); err != nil {
		return err
	}

	// 连接redis
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pkg.NewMetrics(reg)

	users := &mysql.UserRepository{DB: db}
	communities := &mysql.CommunityRepository{DB: db}
	members := &mysql.CommunityMemberRepository{DB: db}
	requests := &mysql.JoinRequestRepository{DB: db}
	announcements := &mysql.AnnouncementRepository{DB: db}
	events := &mysql.EventRepository{DB: db}
	posts := &mysql.PostRepository{DB: db}
	comments := &mysql.CommentRepository{DB: db}
	reports := &mysql.ReportRepository{DB: db}
	checkIns := &mysql.CheckInRepository{DB: db}
	outbox := &mysql.OutboxRepository{DB: db}
	sessions := &redis.SessionRepository{RDB: rdb}
	lock := &redis.DistLock{RDB: rdb}

	// 未配置图床时两者都保持 nil 接口
	var (
		images service.ImageStore
		signer handler.UploadSigner
	)
	if cfg.CloudinaryEnabled() {
		cld := pkg.NewCloudinaryClient(pkg.CloudinaryConfig{
			CloudName:    cfg.Cloudinary.CloudName,
			APIKey:       cfg.Cloudinary.APIKey,
			APISecret:    cfg.Cloudinary.APISecret,
			UploadPreset: cfg.Cloudinary.UploadPreset,
			UploadFolder: cfg.Cloudinary.UploadFolder,
		})
		images, signer = cld, cld
	}

	tokens := pkg.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	userSvc := service.NewUserService(users, members, sessions, tokens, log.Named("user"))
	communitySvc := service.NewCommunityService(users, communities, members, requests, log.Named("community"))
	announcementSvc := service.NewAnnouncementService(announcements, members, users, log.Named("announcement"))
	eventSvc := service.NewEventService(events, members, users, log.Named("event"))
	postSvc := service.NewPostService(posts, comments, members, users, images, log.Named("post"))
	commentSvc := service.NewCommentService(comments, posts, members, users, log.Named("comment"))
	reportSvc := service.NewReportService(reports, members, users, log.Named("report"))
	checkInSvc := service.NewCheckInService(checkIns, members, users, log.Named("checkin"))

	// outbox 投递链：邮件在前，kafka（未配置时打日志）最后
	var senders []service.Sender
	if cfg.SMTPEnabled() {
		mailer := pkg.NewMailer(pkg.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		senders = append(senders, service.CheckInMailSender(users, mailer, log.Named("mail")))
	}
	if cfg.KafkaEnabled() {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer func() { _ = producer.Close() }()
		senders = append(senders, service.KafkaSender(producer))
	} else {
		senders = append(senders, service.LogSender(log.Named("outbox")))
	}
	relayer := service.NewOutboxRelayer(outbox, lock, service.Fanout(senders...), service.RelayerOptions{
		BatchSize: cfg.Outbox.BatchSize,
		Interval:  cfg.Outbox.Interval,
		MaxRetry:  cfg.Outbox.MaxRetry,
	}, metrics, log.Named("outbox"))
	go relayer.Run(ctx)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.InitRouter(router.Deps{
		Handlers: router.Handlers{
			User:          handler.NewUserHandler(userSvc, postSvc, reportSvc, log),
			Community:     handler.NewCommunityHandler(communitySvc, log),
			Announcement:  handler.NewAnnouncementHandler(announcementSvc, log),
			Event:         handler.NewEventHandler(eventSvc, log),
			Post:          handler.NewPostHandler(postSvc, log),
			Comment:       handler.NewCommentHandler(commentSvc, log),
			Report:        handler.NewReportHandler(reportSvc, log),
			DailyGreeting: handler.NewCheckInHandler(checkInSvc, model.KindDailyGreeting, "dailyGreeting", log),
			Disaster:      handler.NewCheckInHandler(checkInSvc, model.KindDisasterCheck, "disasterCheck", log),
			Upload:        handler.NewUploadHandler(signer),
		},
		Verifier: userSvc,
		Metrics:  metrics,
		Gatherer: reg,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.App.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
