// Command storesyncd runs the replay daemon without the CLI front end, for
// service managers that start a bare binary.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"storesync/internal/config"
	"storesync/internal/daemonrun"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(os.Getenv(configEnv))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(ctx, cfg, daemonOptions(cfg, os.Getenv)); err != nil {
		log.Fatalf("storesyncd: %v", err)
	}
}
