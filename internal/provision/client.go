package provision

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

const (
	defaultPollInterval = 2 * time.Second
	defaultPollBudget   = 60 * time.Second
	requestTimeout      = 10 * time.Second
)

// DeployError means the allocation request could not be submitted or its
// response could not be parsed. Retrying is the caller's decision, never
// this client's.
type DeployError struct {
	Op  string
	Err error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy failed during %s: %v", e.Op, e.Err)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// Client talks to the Edgegap deployment API. It holds no mutable state
// across calls; the in-flight request id lives with the caller.
type Client struct {
	baseURL    string
	apiKey     string
	appName    string
	appVersion string

	httpc        *fasthttp.Client
	pollInterval time.Duration
	pollBudget   time.Duration
	logger       zerolog.Logger
}

type Option func(*Client)

// WithPollTiming tightens the status-poll cadence and wall-clock budget,
// mainly for tests.
func WithPollTiming(interval, budget time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.pollBudget = budget
	}
}

func NewClient(baseURL, apiKey, appName, appVersion string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		appName:    appName,
		appVersion: appVersion,
		httpc: &fasthttp.Client{
			ReadTimeout:         requestTimeout,
			WriteTimeout:        requestTimeout,
			MaxIdleConnDuration: time.Minute,
		},
		pollInterval: defaultPollInterval,
		pollBudget:   defaultPollBudget,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) authHeader() string {
	if strings.HasPrefix(c.apiKey, "token") {
		return c.apiKey
	}
	return "token " + c.apiKey
}

type deployRequest struct {
	AppName     string   `json:"app_name"`
	VersionName string   `json:"version_name"`
	IPList      []string `json:"ip_list"`
}

type deployResponse struct {
	RequestID string `json:"request_id"`
}

type statusResponse struct {
	Running  bool                   `json:"running"`
	PublicIP string                 `json:"public_ip"`
	Ports    map[string]portMapping `json:"ports"`
}

type portMapping struct {
	Internal int    `json:"internal"`
	External int    `json:"external"`
	Protocol string `json:"protocol"`
}

func (sr statusResponse) externalPort() int {
	for _, pm := range sr.Ports {
		if pm.External > 0 {
			return pm.External
		}
	}
	return 0
}

// Deploy submits a single allocation request for a game server close to
// clientIP. Any transport or non-2xx failure surfaces immediately.
func (c *Client) Deploy(ctx context.Context, clientIP string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &DeployError{Op: "request", Err: err}
	}

	body, err := json.Marshal(deployRequest{
		AppName:     c.appName,
		VersionName: c.appVersion,
		IPList:      []string{clientIP},
	})
	if err != nil {
		return "", &DeployError{Op: "encode", Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/deploy")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", c.authHeader())
	req.SetBody(body)

	if err := c.httpc.DoTimeout(req, resp, requestTimeout); err != nil {
		return "", &DeployError{Op: "request", Err: err}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return "", &DeployError{Op: "request", Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.Body())}
	}

	var dr deployResponse
	if err := json.Unmarshal(resp.Body(), &dr); err != nil {
		return "", &DeployError{Op: "decode", Err: err}
	}
	if dr.RequestID == "" {
		return "", &DeployError{Op: "decode", Err: fmt.Errorf("response carries no request_id")}
	}

	c.logger.Info().Str("request_id", dr.RequestID).Str("client_ip", clientIP).Msg("deployment requested")
	return dr.RequestID, nil
}

// PollStatus checks the deployment on a fixed cadence until the provider
// reports it running with a usable external port, or the wall-clock budget
// runs out. Individual poll failures count as "not ready yet".
func (c *Client) PollStatus(ctx context.Context, requestID string) (Allocation, error) {
	alloc := Allocation{RequestID: requestID, Status: StatusPending}
	deadline := time.Now().Add(c.pollBudget)

	for time.Now().Before(deadline) {
		status, err := c.fetchStatus(requestID)
		if err != nil {
			c.logger.Debug().Err(err).Str("request_id", requestID).Msg("status poll not ready")
		} else if status.Running {
			if port := status.externalPort(); port > 0 {
				alloc.Status = StatusRunning
				alloc.PublicIP = status.PublicIP
				alloc.Port = port
				c.logger.Info().
					Str("request_id", requestID).
					Str("public_ip", alloc.PublicIP).
					Int("port", alloc.Port).
					Msg("server running")
				return alloc, nil
			}
		}

		select {
		case <-ctx.Done():
			alloc.Status = StatusFailed
			return alloc, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	alloc.Status = StatusFailed
	return alloc, apperr.ErrProvisionTimeout
}

func (c *Client) fetchStatus(requestID string) (statusResponse, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/status/" + requestID)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", c.authHeader())

	if err := c.httpc.DoTimeout(req, resp, requestTimeout); err != nil {
		return statusResponse{}, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return statusResponse{}, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	var sr statusResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil {
		return statusResponse{}, err
	}
	return sr, nil
}
