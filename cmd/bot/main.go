package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	telegramAdapter "github.com/roman19921993/cybertechno25-bot/internal/adapter/telegram"
	"github.com/roman19921993/cybertechno25-bot/internal/config"
	"github.com/roman19921993/cybertechno25-bot/internal/domain"
	pgRepo "github.com/roman19921993/cybertechno25-bot/internal/infra/postgres"
	sqliteRepo "github.com/roman19921993/cybertechno25-bot/internal/infra/sqlite"
	"github.com/roman19921993/cybertechno25-bot/internal/infra/webhook"
	"github.com/roman19921993/cybertechno25-bot/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Ошибка создания бота: %v", err)
	}
	bot.Debug = false
	logger.Info("authorized", "username", bot.Self.UserName)

	var (
		leadRepo   domain.LeadRepository
		funnelRepo usecase.FunnelRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgRepo.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres init error: %v", err)
		}
		defer pool.Close()
		leadRepo, err = pgRepo.NewLeadRepo(ctx, pool)
		if err != nil {
			log.Fatalf("postgres schema error: %v", err)
		}
		funnelRepo, err = pgRepo.NewFunnelRepo(ctx, pool)
		if err != nil {
			log.Fatalf("funnel postgres init error: %v", err)
		}
	} else {
		db, err := sqliteRepo.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("sqlite init error: %v", err)
		}
		defer db.Close()
		leadRepo, err = sqliteRepo.NewLeadRepo(ctx, db)
		if err != nil {
			log.Fatalf("sqlite schema error: %v", err)
		}
		funnelRepo, err = sqliteRepo.NewFunnelRepo(db)
		if err != nil {
			log.Fatalf("funnel sqlite init error: %v", err)
		}
	}

	operatorID, _ := cfg.OperatorChatID()
	deliveries := []usecase.LeadDelivery{telegramAdapter.NewOperatorNotifier(bot, operatorID, cfg.TZ)}
	if cfg.LeadWebhookURL != "" {
		deliveries = append(deliveries, webhook.NewClient(cfg.LeadWebhookURL, cfg.LeadWebhookSecret))
	}

	funnelUC := usecase.NewFunnelUsecase(funnelRepo)
	intake := usecase.NewIntake(usecase.NewDialog(cfg.PolicyURL), leadRepo, logger, deliveries...)
	intake.SetFunnel(funnelUC)
	handler := telegramAdapter.NewHandler(bot, intake, funnelUC, operatorID, cfg.Workers, logger)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return handler.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
