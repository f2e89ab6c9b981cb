// Package main wires the turn-engine service process lifecycle.
//
// It reads config from flags/env and runs the turns server until
// shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	turnscmd "github.com/riftholm/riftholm/internal/cmd/turns"
	"github.com/riftholm/riftholm/internal/platform/otel"
)

func main() {
	cfg, err := turnscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[TURNS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := otel.Setup(ctx, "riftholm-turns")
	if err != nil {
		log.Fatalf("setup telemetry: %v", err)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			log.Printf("shutdown telemetry: %v", err)
		}
	}()

	if err := turnscmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
