// Starts an http server that converts between ActivityStreams 1 and
// microformats2 representations of social web content.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/ravenscroftj/granary/server"
	"github.com/ravenscroftj/granary/server/telemetry"
)

func readConfig(filename string) server.Config {
	cfg, _ := server.ReadConfig([]byte("{}"))
	b, err := os.ReadFile(filename)
	if err != nil {
		telemetry.Error(err, "opening config [%s]", filename)
	} else {
		c, err := server.ReadConfig(b)
		if err != nil {
			telemetry.Error(err, "parsing config [%s]", filename)
		}
		cfg = c
	}

	return cfg
}

func main() {
	configFile := flag.String("config", "config.json", "config json file")
	host := flag.String("host", "", "this hostname")
	port := flag.Int("port", 0, "listen port")

	flag.Parse()

	telemetry.Log("starting granary")

	cfg := readConfig(*configFile)
	if *host != "" {
		cfg.Server.HostName = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	svc := server.NewService(cfg)

	// Startup the service to listen for http requests
	svc.Start(context.Background())

	// Wait for ^C
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	<-c
	telemetry.Log("stopping granary")

	// Shut down the service
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()
	svc.Stop(ctx)
	telemetry.Log("stopped granary cleanly")
}
