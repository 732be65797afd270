package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AaronLay10/TreasureLand/internal/api"
	"github.com/AaronLay10/TreasureLand/internal/events"
	"github.com/AaronLay10/TreasureLand/internal/mqtt"
	"github.com/AaronLay10/TreasureLand/internal/version"
)

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and MQTT bridge when enabled)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd)
		},
	}
}

func (a *app) runServe(cmd *cobra.Command) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	game, backend, err := openGame(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	metrics := api.NewMetrics()
	metrics.SetName(cfg.Server.Name)
	events.AddSink("metrics", metrics)
	if sink := backend.Sink(); sink != nil {
		events.AddSink("postgres", sink)
	}
	defer events.ClearSinks()

	opts := api.Options{
		Name:           cfg.Server.Name,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TLS:            api.NewTLSConfig(cfg.Server.TLSCert, cfg.Server.TLSKey),
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	}
	if backend.EventLog != nil {
		opts.EventLog = backend.EventLog
	}
	if opts.Auth, err = api.LoadAuth(); err != nil {
		return err
	}

	if cfg.MQTT.Enabled {
		client := mqtt.NewClient(cfg.MQTT.URL, cfg.MQTT.ClientID)
		if err := client.Connect(); err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTT.URL).Msg("mqtt unavailable, retrying in background")
		}
		defer client.Disconnect()

		events.AddSink("mqtt", mqtt.NewPublisher(client, cfg.MQTT.TopicPrefix))
		commands := mqtt.NewCommandHandler(client, game, cfg.MQTT.TopicPrefix)
		if err := commands.Start(); err != nil {
			log.Warn().Err(err).Msg("mqtt command subscription failed")
		}
		opts.MQTTConnected = client.IsConnected
	}

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "", map[string]interface{}{
		"service":  "treasureland",
		"hostname": hostname,
		"pid":      os.Getpid(),
		"version":  version.Version,
		"storage":  cfg.Storage.Driver,
	})

	err = api.New(game, metrics, opts).ListenAndServe(ctx)

	events.Emit("info", "system.shutdown", "", nil)
	return err
}
