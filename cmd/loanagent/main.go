package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tbxark/loanagent/config"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	mode := flag.String("mode", "chat", "run mode: chat or serve")
	flag.Parse()
	cfg, err := config.Load(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("init app: %v", err)
	}
	defer app.Close()

	switch *mode {
	case "chat":
		err = runChat(ctx, app, os.Stdin, os.Stdout)
	case "serve":
		err = runServe(ctx, app, cfg.Listen)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("%s: %v", *mode, err)
	}
}
