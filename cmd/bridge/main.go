// Command bridge starts one Hue-bridge-emulating hub personality and a demo
// host environment, grounded on the teacher's cmd/bridge/main.go
// and generalized with a cobra CLI in the style of jmylchreest-keylightd.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"echo-hue-bridge/internal/adapters/output/hostenv"
	"echo-hue-bridge/internal/config"
	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/hub"
	"echo-hue-bridge/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Emulate a Philips Hue bridge for Alexa smart-home control",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	cmd.Flags().String("config", "", "Path to config file")
	cmd.Flags().String("hub-id", "", "Bridge hub id (hex, defaults to config or 0123456789abcdef)")
	cmd.Flags().Int("port", 0, "HTTP port to bind (defaults to config or 80)")
	cmd.Flags().String("bind-addr", "", "IP address to advertise and bind (defaults to LOCAL_IP or auto-detected)")
	cmd.Flags().Bool("debug", false, "Enable verbose logging")

	v.BindPFlag("config", cmd.Flags().Lookup("config"))
	v.BindPFlag("hub_id", cmd.Flags().Lookup("hub-id"))
	v.BindPFlag("port", cmd.Flags().Lookup("port"))
	v.BindPFlag("bind_addr", cmd.Flags().Lookup("bind-addr"))
	v.BindPFlag("debug", cmd.Flags().Lookup("debug"))

	return cmd
}

func run(v *viper.Viper) error {
	configFile := v.GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("bridge: loading config: %w", err)
	}
	if hubID := v.GetString("hub_id"); hubID != "" {
		cfg.HubID = hubID
	}
	if port := v.GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if addr := v.GetString("bind_addr"); addr != "" {
		cfg.BindAddr = addr
	}
	if v.GetBool("debug") {
		cfg.Debug = true
	}
	if cfg.BindAddr == "0.0.0.0" || cfg.BindAddr == "" {
		if ip := os.Getenv("LOCAL_IP"); ip != "" {
			cfg.BindAddr = ip
		} else if ip := detectLocalIP(); ip != "" {
			cfg.BindAddr = ip
		}
	}

	logger := logging.New(cfg.Debug)
	logger.Info().
		Str("hub_id", cfg.HubID).
		Str("bind_addr", cfg.BindAddr).
		Int("port", cfg.Port).
		Msg("starting bridge")

	host := hostenv.New()
	seedDemoDevices(host, cfg.HubID)

	m := &model.Hub{ID: cfg.HubID, Port: cfg.Port, IP: cfg.BindAddr, Debug: cfg.Debug}
	h := hub.New(m, host, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.Start(ctx); err != nil {
		return fmt.Errorf("bridge: starting hub: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return h.Shutdown(shutdownCtx)
}

// seedDemoDevices populates the demo host environment with a couple of
// dimmable/colorable lights so discovery has something to find out of the
// box; a real deployment wires its own HostEnvironment instead.
func seedDemoDevices(host *hostenv.Memory, hubID string) {
	_ = host.CreateNode(context.Background(), "light", "living-room-lamp", hubID, "Living Room Lamp")
	_ = host.CreateNode(context.Background(), "light", "kitchen-light", hubID, "Kitchen Light")
}

func detectLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}
