package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"github.com/commonsfund/treasury/internal/config"
	"github.com/commonsfund/treasury/internal/scheduler"
	"github.com/commonsfund/treasury/internal/services/db"
	"github.com/commonsfund/treasury/internal/services/webhook"
	"github.com/commonsfund/treasury/internal/services/window"
	"github.com/commonsfund/treasury/pkg/queue"
	"github.com/commonsfund/treasury/pkg/router"
	"github.com/commonsfund/treasury/pkg/vault"
	"github.com/getsentry/sentry-go"
)

func main() {
	log.Default().Println("launching treasury...")

	env := flag.String("env", "", "path to .env file")

	port := flag.Int("port", 3000, "port to listen on")

	dispatch := flag.Bool("dispatch", false, "dispatch due recurring payments")

	rate := flag.Int("rate", 30, "seconds between due payment sweeps (default: 30)")

	flag.Parse()

	ctx := context.Background()

	conf, err := config.New(ctx, *env)
	if err != nil {
		log.Fatal(err)
	}

	if conf.SentryURL != "" && conf.SentryURL != "x" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn: conf.SentryURL,
			// Set TracesSampleRate to 1.0 to capture 100%
			// of transactions for performance monitoring.
			// We recommend adjusting this value in production,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			log.Fatalf("sentry.Init: %s", err)
		}
		// Flush buffered events before the program terminates.
		defer sentry.Flush(2 * time.Second)
	}

	log.Default().Println("starting internal db service...")

	d, err := db.NewDB(conf.TreasuryName, conf.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	log.Default().Println("starting window store...")

	ws, err := window.NewStore(filepath.Join(conf.DataDir, "windows"))
	if err != nil {
		log.Fatal(err)
	}
	defer ws.Close()

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			ws.RunGC()
		}
	}()

	var emitter vault.Emitter = d.EventDB
	if conf.ArchiveConfigured() {
		log.Default().Println("mirroring events to archive db...")

		adb, err := db.NewArchiveDB(conf.ArchiveDBUser, conf.ArchiveDBPassword, conf.ArchiveDBName, conf.ArchiveDBHost, conf.TreasuryName)
		if err != nil {
			log.Fatal(err)
		}
		defer adb.Close()

		emitter = db.NewTeeEmitter(d.EventDB, adb)
	}

	v := vault.New(d.SettingsDB, d.ProposalDB, d.PaymentDB, ws, emitter)

	wm := webhook.NewMessager(conf.WebhookURL, conf.TreasuryName, conf.WebhookURL != "")

	quitAck := make(chan error)

	if *dispatch {
		log.Default().Println("starting payment dispatcher...")

		q := queue.NewService(3, ctx, wm)
		defer q.Close()

		go func() {
			quitAck <- q.Start(scheduler.NewExecutor(v))
		}()

		disp := scheduler.NewDispatcher(d, q, time.Duration(*rate)*time.Second)
		defer disp.Close()

		go func() {
			quitAck <- disp.Start()
		}()
	}

	log.Default().Println("starting api service...")

	api := router.NewServer(conf.APIKEY, d, v)

	go func() {
		quitAck <- api.Start(*port)
	}()

	log.Default().Println("listening on port: ", *port)

	for err := range quitAck {
		if err != nil {
			log.Fatal(err)
		}
	}
}
