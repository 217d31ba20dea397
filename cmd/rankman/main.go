package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rankman-bot/rankman/internal/config"
	"github.com/rankman-bot/rankman/internal/database"
	"github.com/rankman-bot/rankman/internal/discord"
	"github.com/rankman-bot/rankman/internal/server"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		log = log.Level(level)
	}

	db, err := database.Open(cfg.DatabasePath, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to open database")
	}

	bot, err := discord.New(cfg, db, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to create discord client")
	}
	if err := bot.Open(); err != nil {
		log.Fatal().Err(err).Msg("unable to connect to discord")
	}
	defer bot.Close()

	srv := server.New(cfg.ListenAddr, bot, &log)
	srv.Start()
	defer srv.Close()

	log.Info().Msg("rankman is running, press ctrl+c to exit")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	log.Info().Msg("shutting down")
}
