package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/crystal-irc/crystalircd/pkg/config"
	"github.com/crystal-irc/crystalircd/pkg/server"
)

// envDefault returns the environment variable value if set, otherwise the fallback.
func envDefault(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

func main() {
	confFile := flag.String("conf", envDefault("IRCD_CONF", ""), "Path to YAML config file (env: IRCD_CONF)")
	listen := flag.String("listen", envDefault("IRCD_LISTEN", ""), "Plaintext listen address, overrides config (env: IRCD_LISTEN)")
	wsListen := flag.String("ws-listen", envDefault("IRCD_WS_LISTEN", ""), "WebSocket listen address, overrides config (env: IRCD_WS_LISTEN)")
	metricsListen := flag.String("metrics", envDefault("IRCD_METRICS", ""), "Prometheus listen address, overrides config (env: IRCD_METRICS)")
	motdPath := flag.String("motd", envDefault("IRCD_MOTD", ""), "Path to MOTD file, overrides config (env: IRCD_MOTD)")
	storePath := flag.String("store", envDefault("IRCD_STORE", ""), "Path to list-mode store, overrides config (env: IRCD_STORE)")
	flag.Parse()

	cfg := config.Default()
	if *confFile != "" {
		loaded, err := config.Load(*confFile)
		if err != nil {
			log.Fatalf("Startup: %v", err)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *wsListen != "" {
		cfg.WSListen = *wsListen
	}
	if *metricsListen != "" {
		cfg.MetricsListen = *metricsListen
	}
	if *motdPath != "" {
		cfg.MOTDPath = *motdPath
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Startup: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Printf("Received %v, shutting down", s)
		srv.Stop()
	}()

	log.Printf("Starting %s on %s", cfg.ServerName, cfg.Listen)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server: %v", err)
	}
}
