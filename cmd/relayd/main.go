// Command relayd runs the relay server: load config, start listening,
// shut down cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shadowmint/relay/pkg/relay/config"
	"github.com/shadowmint/relay/pkg/relay/server"
	"github.com/shadowmint/relay/pkg/utils/chk"
	"github.com/shadowmint/relay/pkg/utils/log"
)

func main() {
	configPath := flag.String("config", "./relay.toml", "path to the relay's TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if chk.T(err) {
		os.Exit(1)
	}

	s := server.New(cfg)
	if err := s.Start(); chk.T(err) {
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.I.Ln("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	chk.E(s.Shutdown(ctx))
}
