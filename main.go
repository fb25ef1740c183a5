package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"order-bot/bot"
	"order-bot/config"
	"order-bot/conversation"
	"order-bot/db"
	"order-bot/events"
	"order-bot/httpapi"
	"order-bot/router"
	"order-bot/services"
	"order-bot/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

const usage = `usage: order-bot [command]

commands:
  all          run both bots and the HTTP API if HTTP_ADDR is set (default)
  organizer    run only the organizer bot
  participant  run only the participant bot
  api          run only the HTTP API
  migrate      apply database migrations and exit
  passwd       generate an organizer password and its ORGANIZER_PASSWORD_HASH`

const sessionPurgeInterval = 10 * time.Minute

func main() {
	cmd := "all"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if cmd == "passwd" {
		runPasswd()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cmd == "migrate" {
		if err := db.Migrate(ctx, pool, true); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
		return
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool, false); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	switch cmd {
	case "all", "organizer", "participant", "api":
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(ctx, cmd, cfg, pool); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, cfg *config.Config, pool *pgxpool.Pool) error {
	st := store.NewPostgres(pool, cfg.DB.OpTimeout)

	var mq *events.RabbitMQ
	var notifier services.SubmissionNotifier
	if cfg.AMQP.URL != "" {
		var err error
		mq, err = events.NewRabbitMQ(cfg.AMQP.URL)
		if err != nil {
			return err
		}
		defer mq.Close()
		pub, err := events.NewPublisher(mq)
		if err != nil {
			return err
		}
		notifier = pub
	}

	sessions, err := openSessions(ctx, cfg, pool)
	if err != nil {
		return err
	}

	catalog := services.NewCatalog(st)
	carts := services.NewCartEngine(st, notifier)
	reports := services.NewReports(st)
	flows := conversation.NewEngine(sessions, catalog, cfg.Session.TTL)
	rt := router.New(catalog, carts, reports, flows)

	var wg sync.WaitGroup
	start := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
			log.Printf("%s stopped", name)
		}()
	}

	if exp, ok := sessions.(conversation.Expirer); ok {
		start("session purge", func() { purgeSessions(ctx, exp) })
	}

	if cmd == "all" || cmd == "organizer" {
		auth := bot.NewAuth(cfg.Telegram.OrganizerIDs, st, cfg.Telegram.OrganizerPasswordHash)
		ob, err := bot.NewOrganizerBot(cfg, rt, auth)
		if err != nil {
			return err
		}
		start("organizer bot", func() { ob.Start(ctx) })
		if mq != nil {
			msgs, err := mq.Consume(events.CartSubmittedQueue)
			if err != nil {
				return err
			}
			consumer := events.NewConsumer(ob.NotifySubmitted)
			start("submission consumer", func() { consumer.Run(ctx, msgs) })
		}
	}
	if cmd == "all" || cmd == "participant" {
		pb, err := bot.NewParticipantBot(cfg, rt)
		if err != nil {
			return err
		}
		start("participant bot", func() { pb.Start(ctx) })
	}
	if cmd == "api" || (cmd == "all" && cfg.API.Addr != "") {
		addr := cfg.API.Addr
		if addr == "" {
			addr = ":8080"
		}
		engine := httpapi.NewRouter(httpapi.NewReportHandler(catalog, reports), cfg.API.Key)
		start("http api", func() {
			if err := httpapi.Serve(ctx, addr, engine); err != nil {
				log.Printf("http: %v", err)
			}
		})
	}

	log.Printf("order-bot %s started", cmd)
	<-ctx.Done()
	wg.Wait()
	return nil
}

func openSessions(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (conversation.SessionStore, error) {
	switch cfg.Session.Backend {
	case "memory":
		return conversation.NewMemoryStore(), nil
	case "redis":
		rs, err := conversation.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case "postgres", "":
		return conversation.NewPostgresStore(pool, cfg.DB.OpTimeout), nil
	}
	return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.Session.Backend)
}

func purgeSessions(ctx context.Context, exp conversation.Expirer) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := exp.DeleteExpired(ctx)
			if err != nil {
				log.Printf("session purge: %v", err)
			} else if n > 0 {
				log.Printf("session purge: removed %d expired sessions", n)
			}
		}
	}
}

func runPasswd() {
	plain, hash, err := services.NewOrganizerPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, "passwd:", err)
		os.Exit(1)
	}
	fmt.Println("password:", plain)
	fmt.Println("ORGANIZER_PASSWORD_HASH=" + hash)
}
