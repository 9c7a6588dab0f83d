package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/hexforge/hwidgate/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{ConfigPath: *configPath}
	if *migrateOnly {
		if errMigrate := app.Migrate(ctx, opts); errMigrate != nil {
			log.WithError(errMigrate).Fatal("migration failed")
		}
		log.Info("migration complete")
		return
	}

	if errRun := app.Run(ctx, opts); errRun != nil {
		log.WithError(errRun).Fatal("server exited")
	}
}
