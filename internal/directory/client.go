package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/chubibyy/Vidar-DEV/internal/apperr"
)

const requestTimeout = 10 * time.Second

// Directory is the lobby-service surface the matchmaking coordinator needs.
type Directory interface {
	QuickJoin(ctx context.Context) (Lobby, error)
	Create(ctx context.Context, name string, maxPlayers int, data map[string]string) (Lobby, error)
	Get(ctx context.Context, lobbyId string) (Lobby, error)
	Update(ctx context.Context, lobbyId string, data map[string]string) (Lobby, error)
	Heartbeat(ctx context.Context, lobbyId string) error
	Delete(ctx context.Context, lobbyId string) error
}

// Client is the REST client for the lobby directory service. The directory
// owns seat reservation and heartbeat-driven expiry; this client only
// exposes the primitives.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *fasthttp.Client
	logger  zerolog.Logger
}

var _ Directory = (*Client)(nil)

func NewClient(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc: &fasthttp.Client{
			ReadTimeout:         requestTimeout,
			WriteTimeout:        requestTimeout,
			MaxIdleConnDuration: time.Minute,
		},
		logger: logger,
	}
}

type createLobbyRequest struct {
	Name       string            `json:"name"`
	MaxPlayers int               `json:"max_players"`
	IsPrivate  bool              `json:"is_private"`
	Data       map[string]string `json:"data"`
}

type updateLobbyRequest struct {
	Data map[string]string `json:"data"`
}

// QuickJoin atomically reserves a seat in any open, unlocked lobby.
// ErrNoSessionAvailable is the signal to become host instead.
func (c *Client) QuickJoin(ctx context.Context) (Lobby, error) {
	status, body, err := c.do(ctx, fasthttp.MethodPost, "/v1/lobbies/quick-join", nil)
	if err != nil {
		return Lobby{}, err
	}
	if status == fasthttp.StatusNotFound {
		return Lobby{}, apperr.ErrNoSessionAvailable
	}
	if status != fasthttp.StatusOK {
		return Lobby{}, fmt.Errorf("quick join: unexpected status %d: %s", status, body)
	}
	return decodeLobby(body)
}

func (c *Client) Create(ctx context.Context, name string, maxPlayers int, data map[string]string) (Lobby, error) {
	reqBody, err := json.Marshal(createLobbyRequest{
		Name:       name,
		MaxPlayers: maxPlayers,
		IsPrivate:  false,
		Data:       data,
	})
	if err != nil {
		return Lobby{}, err
	}

	status, body, err := c.do(ctx, fasthttp.MethodPost, "/v1/lobbies", reqBody)
	if err != nil {
		return Lobby{}, err
	}
	if status != fasthttp.StatusCreated && status != fasthttp.StatusOK {
		return Lobby{}, fmt.Errorf("create lobby: unexpected status %d: %s", status, body)
	}

	lobby, err := decodeLobby(body)
	if err == nil {
		c.logger.Info().Str("lobby_id", lobby.Id).Str("name", lobby.Name).Msg("lobby created")
	}
	return lobby, err
}

func (c *Client) Get(ctx context.Context, lobbyId string) (Lobby, error) {
	status, body, err := c.do(ctx, fasthttp.MethodGet, "/v1/lobbies/"+lobbyId, nil)
	if err != nil {
		return Lobby{}, err
	}
	if status == fasthttp.StatusNotFound {
		return Lobby{}, apperr.ErrLobbyNotFound(lobbyId)
	}
	if status != fasthttp.StatusOK {
		return Lobby{}, fmt.Errorf("get lobby: unexpected status %d: %s", status, body)
	}
	return decodeLobby(body)
}

func (c *Client) Update(ctx context.Context, lobbyId string, data map[string]string) (Lobby, error) {
	reqBody, err := json.Marshal(updateLobbyRequest{Data: data})
	if err != nil {
		return Lobby{}, err
	}

	status, body, err := c.do(ctx, fasthttp.MethodPatch, "/v1/lobbies/"+lobbyId, reqBody)
	if err != nil {
		return Lobby{}, err
	}
	if status == fasthttp.StatusForbidden {
		return Lobby{}, apperr.ErrNotLobbyOwner
	}
	if status != fasthttp.StatusOK {
		return Lobby{}, fmt.Errorf("update lobby: unexpected status %d: %s", status, body)
	}
	return decodeLobby(body)
}

// Heartbeat keeps the lobby alive; the creator must send one at least every
// 15 seconds or the directory expires the record.
func (c *Client) Heartbeat(ctx context.Context, lobbyId string) error {
	status, body, err := c.do(ctx, fasthttp.MethodPost, "/v1/lobbies/"+lobbyId+"/heartbeat", nil)
	if err != nil {
		return err
	}
	if status != fasthttp.StatusOK && status != fasthttp.StatusNoContent {
		return fmt.Errorf("heartbeat: unexpected status %d: %s", status, body)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, lobbyId string) error {
	status, body, err := c.do(ctx, fasthttp.MethodDelete, "/v1/lobbies/"+lobbyId, nil)
	if err != nil {
		return err
	}
	if status == fasthttp.StatusForbidden {
		return apperr.ErrNotLobbyOwner
	}
	if status != fasthttp.StatusOK && status != fasthttp.StatusNoContent && status != fasthttp.StatusNotFound {
		return fmt.Errorf("delete lobby: unexpected status %d: %s", status, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := c.httpc.DoTimeout(req, resp, requestTimeout); err != nil {
		return 0, nil, err
	}

	respBody := make([]byte, len(resp.Body()))
	copy(respBody, resp.Body())
	return resp.StatusCode(), respBody, nil
}

func decodeLobby(body []byte) (Lobby, error) {
	var lobby Lobby
	if err := json.Unmarshal(body, &lobby); err != nil {
		return Lobby{}, fmt.Errorf("malformed lobby payload: %w", err)
	}
	if lobby.Data == nil {
		lobby.Data = make(map[string]string)
	}
	return lobby, nil
}
