package main

import (
	"log"
	"os"

	"github.com/avstrong/resortslots/internal/app"
	"github.com/avstrong/resortslots/internal/config"
	"github.com/avstrong/resortslots/internal/logger"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err.Error())
		os.Exit(1)
	}

	l, err := logger.New(logger.Config{Level: conf.LogLevel, File: conf.LogFile})
	if err != nil {
		log.Printf("Failed to init logger: %v", err.Error())
		os.Exit(1)
	}

	var exitCode int

	if err := app.Run(conf, l); err != nil {
		l.LogErrorf("Failed to run app: %v", err.Error())

		exitCode = 1
	}

	_ = l.Sync()

	os.Exit(exitCode)
}
