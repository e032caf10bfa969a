package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"survivalsim.ai/internal/policy"
	"survivalsim.ai/internal/transport/ws"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name    = flag.String("name", "bot", "client name")
		species = flag.String("species", "", "species to drive (must use policy: remote on the server)")
		pol     = flag.String("policy", "forager", "in-process policy: idle, random, forager, hunter")
		seed    = flag.Int64("seed", 1, "policy seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	if *species == "" {
		logger.Fatalf("-species is required")
	}
	p, err := policy.ByName(*pol, *seed)
	if err != nil {
		logger.Fatalf("policy: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := ws.Dial(ctx, *url, *name, *species, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer c.Close()
	logger.Printf("WELCOME session=%s species=%s(%d) world=%s view_radius=%d",
		c.Welcome.SessionID, c.Welcome.SpeciesName, c.Welcome.SpeciesID,
		c.Welcome.WorldParams.WorldID, c.Welcome.WorldParams.ViewRadius)

	if err := c.Serve(ctx, p); err != nil && ctx.Err() == nil {
		logger.Printf("session ended: %v", err)
	}
}
