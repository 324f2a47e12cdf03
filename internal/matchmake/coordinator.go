package matchmake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/chubibyy/Vidar-DEV/internal/apperr"
	"github.com/chubibyy/Vidar-DEV/internal/directory"
	"github.com/chubibyy/Vidar-DEV/internal/netutil"
	"github.com/chubibyy/Vidar-DEV/internal/provision"
)

const (
	defaultLobbyPollInterval = 2 * time.Second
	defaultFollowerBudget    = 2 * time.Minute
	defaultHeartbeatInterval = 10 * time.Second
	defaultWarmupDelay       = 2 * time.Second
)

// Provisioner is the slice of the deploy client the coordinator consumes.
type Provisioner interface {
	Deploy(ctx context.Context, clientIP string) (string, error)
	PollStatus(ctx context.Context, requestID string) (provision.Allocation, error)
}

var _ Provisioner = (*provision.Client)(nil)

// Coordinator drives one matchmaking attempt end to end: quick-join an
// existing lobby and follow it, or host a fresh one and provision a
// dedicated server for it. Every failure is terminal; nothing inside
// retries a whole branch.
type Coordinator struct {
	dir       directory.Directory
	prov      Provisioner
	connector Connector
	resolveIP func() (string, error)
	logger    zerolog.Logger

	lobbyPollInterval time.Duration
	followerBudget    time.Duration
	heartbeatInterval time.Duration
	warmupDelay       time.Duration
}

type Option func(*Coordinator)

// WithTimings overrides the poll/heartbeat/warmup cadences, mainly for
// tests.
func WithTimings(lobbyPoll, followerBudget, heartbeat, warmup time.Duration) Option {
	return func(c *Coordinator) {
		c.lobbyPollInterval = lobbyPoll
		c.followerBudget = followerBudget
		c.heartbeatInterval = heartbeat
		c.warmupDelay = warmup
	}
}

func WithIPResolver(resolve func() (string, error)) Option {
	return func(c *Coordinator) {
		c.resolveIP = resolve
	}
}

func NewCoordinator(dir directory.Directory, prov Provisioner, connector Connector, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		dir:               dir,
		prov:              prov,
		connector:         connector,
		resolveIP:         netutil.OutboundIP,
		logger:            logger,
		lobbyPollInterval: defaultLobbyPollInterval,
		followerBudget:    defaultFollowerBudget,
		heartbeatInterval: defaultHeartbeatInterval,
		warmupDelay:       defaultWarmupDelay,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindMatch returns a live game connection or a terminal error. The branch
// is picked by the quick-join outcome: a reserved seat makes this player
// the follower, no open session makes it the host.
func (c *Coordinator) FindMatch(ctx context.Context) (*websocket.Conn, error) {
	lobby, err := c.dir.QuickJoin(ctx)

	switch {
	case err == nil:
		c.logger.Info().Str("lobby_id", lobby.Id).Msg("quick join succeeded, following lobby")
		return c.follow(ctx, lobby.Id)

	case errors.Is(err, apperr.ErrNoSessionAvailable):
		c.logger.Info().Msg("no open session, hosting a new one")
		return c.host(ctx)

	default:
		c.logger.Error().Err(err).Msg("quick join failed")
		return nil, fmt.Errorf("quick join: %w", err)
	}
}

// follow polls the joined lobby until the host publishes a real server
// address, then connects. The poll is bounded: a host that never provisions
// should not hang the follower forever.
func (c *Coordinator) follow(ctx context.Context, lobbyId string) (*websocket.Conn, error) {
	deadline := time.Now().Add(c.followerBudget)

	for time.Now().Before(deadline) {
		lobby, err := c.dir.Get(ctx, lobbyId)
		if err != nil {
			c.logger.Error().Err(err).Str("lobby_id", lobbyId).Msg("lobby read failed")
			return nil, fmt.Errorf("lobby poll: %w", err)
		}

		ip, port, ready, err := lobby.ServerEndpoint()
		if err != nil {
			c.logger.Warn().Err(err).Str("lobby_id", lobbyId).Msg("lobby carries malformed endpoint, waiting")
		} else if ready {
			c.logger.Info().Str("ip", ip).Int("port", port).Msg("server address published, connecting")
			return c.connector.Connect(ctx, ip, port)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.lobbyPollInterval):
		}
	}

	return nil, apperr.ErrMatchmakeTimeout
}

// host creates the lobby, keeps it alive with heartbeats, provisions a
// dedicated server, publishes its address, and connects. Any failure tears
// the lobby down best-effort so no unprovisioned session dangles.
func (c *Coordinator) host(ctx context.Context) (*websocket.Conn, error) {
	lobby, err := c.dir.Create(ctx, directory.NewLobbyName(), directory.RankedMaxPlayers, directory.PlaceholderData())
	if err != nil {
		return nil, fmt.Errorf("create lobby: %w", err)
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go c.heartbeatLoop(hbCtx, lobby.Id)

	clientIP, err := c.resolveIP()
	if err != nil {
		c.deleteLobby(lobby.Id)
		return nil, fmt.Errorf("resolve public ip: %w", err)
	}

	requestID, err := c.prov.Deploy(ctx, clientIP)
	if err != nil {
		c.deleteLobby(lobby.Id)
		return nil, fmt.Errorf("deploy: %w", err)
	}

	alloc, err := c.prov.PollStatus(ctx, requestID)
	if err != nil {
		c.deleteLobby(lobby.Id)
		return nil, fmt.Errorf("waiting for server: %w", err)
	}

	if _, err := c.dir.Update(ctx, lobby.Id, directory.EndpointData(alloc.PublicIP, alloc.Port)); err != nil {
		c.deleteLobby(lobby.Id)
		return nil, fmt.Errorf("publish server address: %w", err)
	}

	// Let the fresh server process finish binding its listener before the
	// first dial.
	select {
	case <-ctx.Done():
		c.deleteLobby(lobby.Id)
		return nil, ctx.Err()
	case <-time.After(c.warmupDelay):
	}

	conn, err := c.connector.Connect(ctx, alloc.PublicIP, alloc.Port)
	if err != nil {
		c.deleteLobby(lobby.Id)
		return nil, fmt.Errorf("connect: %w", err)
	}
	return conn, nil
}

func (c *Coordinator) heartbeatLoop(ctx context.Context, lobbyId string) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.dir.Heartbeat(ctx, lobbyId); err != nil && ctx.Err() == nil {
				c.logger.Warn().Err(err).Str("lobby_id", lobbyId).Msg("lobby heartbeat failed")
			}
		}
	}
}

// deleteLobby is best-effort cleanup on a failed hosting attempt. The
// parent context may already be cancelled, so it gets its own deadline.
func (c *Coordinator) deleteLobby(lobbyId string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.dir.Delete(ctx, lobbyId); err != nil {
		c.logger.Warn().Err(err).Str("lobby_id", lobbyId).Msg("failed to delete lobby during cleanup")
	}
}
