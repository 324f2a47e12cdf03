package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/chubibyy/Vidar-DEV/api"
	"github.com/chubibyy/Vidar-DEV/db"
	"github.com/chubibyy/Vidar-DEV/db/sqlc"
	"github.com/chubibyy/Vidar-DEV/internal/cloudenv"
	"github.com/chubibyy/Vidar-DEV/internal/config"
	"github.com/chubibyy/Vidar-DEV/internal/directory"
	"github.com/chubibyy/Vidar-DEV/internal/matchmake"
	"github.com/chubibyy/Vidar-DEV/internal/netutil"
	"github.com/chubibyy/Vidar-DEV/internal/provision"
	mc "github.com/chubibyy/Vidar-DEV/models/connection"
	mg "github.com/chubibyy/Vidar-DEV/models/game"
)

const (
	modeServer = "server"
	modeClient = "client"

	defaultServerPort = 7777
)

func main() {
	mode := flag.String("mode", modeClient, "process role: server (dedicated arena) or client (matchmake and play)")
	port := flag.Int("port", 0, "listen port in server mode; 0 defers to SERVER_PORT, then the orchestrator ports mapping")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("mode", *mode).Logger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	switch *mode {
	case modeServer:
		runServer(cfg, *port, logger)

	case modeClient:
		runClient(cfg, logger)

	default:
		logger.Fatal().Str("mode", *mode).Msg("mode must be either server or client")
	}
}

// resolveServerPort picks the listen port. SERVER_PORT wins over the flag
// when it parses to something usable; the orchestrator ports mapping is the
// last fallback so a container with no explicit port still comes up.
func resolveServerPort(flagPort int, rt cloudenv.Runtime, logger zerolog.Logger) int {
	if raw := os.Getenv("SERVER_PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 && p <= 65535 {
			return p
		}
		logger.Warn().Str("SERVER_PORT", raw).Msg("ignoring unusable SERVER_PORT value")
	}

	if flagPort > 0 {
		return flagPort
	}

	if p, ok := rt.GamePort(); ok {
		return p
	}
	return defaultServerPort
}

func runServer(cfg *config.Config, flagPort int, logger zerolog.Logger) {
	rt := cloudenv.Parse(os.Environ(), logger)
	if rt.Location != nil {
		logger.Info().
			Str("city", rt.Location.City).
			Str("country", rt.Location.Country).
			Msg("running on orchestrated infrastructure")
	}

	port := resolveServerPort(flagPort, rt, logger)
	if err := rt.ValidateGamePort(port); err != nil {
		// Mapping mismatch means players likely cannot reach us, but the
		// mapping may also simply be stale. Start anyway.
		logger.Warn().Err(err).Msg("listen port not found in ports mapping")
	}

	var querier sqlc.Querier
	if cfg.DatabaseURL != "" {
		psqlDb := db.MustConnectToDb(cfg.DatabaseURL, logger)
		querier = sqlc.New(psqlDb)
	} else {
		logger.Warn().Msg("DATABASE_URL not set; analytics disabled")
	}

	ipnet, err := netutil.OutboundIPNet()
	if err != nil {
		logger.Warn().Err(err).Msg("could not resolve outbound ip; analytics keyed to zero address")
		ipnet = net.IPNet{IP: net.IPv4zero, Mask: net.CIDRMask(32, 32)}
	}

	sessionManager := mc.NewArenaSessionManager(logger)
	go sessionManager.CleanupPeriodically()

	match := mg.NewMatch(mg.NewDefaultCardRegistry())
	rp := api.NewRequestProcessor(sessionManager, match, querier, ipnet, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /arena", rp)

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	logger.Info().Str("addr", addr).Str("match_uuid", match.Uuid()).Msg("arena server listening")
	logger.Fatal().Err(http.ListenAndServe(addr, mux)).Msg("server stopped")
}

func runClient(cfg *config.Config, logger zerolog.Logger) {
	dir := directory.NewClient(cfg.DirectoryURL, cfg.DirectoryKey, logger)
	prov := provision.NewClient(cfg.EdgegapURL, cfg.EdgegapKey, cfg.AppName, cfg.AppVersion, logger)
	coordinator := matchmake.NewCoordinator(dir, prov, matchmake.NewWsConnector(), logger)

	conn, err := coordinator.FindMatch(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("matchmaking failed")
	}
	defer conn.Close()

	logger.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("connected to arena server")

	// Headless client: log everything the server pushes until the
	// connection drops. The game client proper renders these instead.
	for {
		var msg mc.Message[map[string]interface{}]
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Info().Err(err).Msg("connection closed")
			return
		}

		evt := logger.Info().Uint8("code", msg.Code)
		if msg.Error != nil {
			evt = evt.Str("error", msg.Error.ErrorDetails).Str("message", msg.Error.Message)
		}
		evt.Interface("payload", msg.Payload).Msg("server push")
	}
}
