// Package provision starts and stops remote browser instances on the
// Scrapybara service and resolves their remote-debugging (CDP) endpoint.
package provision

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.scrapybara.com"

var ErrNoInstance = errors.New("provision: service returned no instance id")

// Instance is a provisioned remote browser.
type Instance struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type cdpURLResponse struct {
	CDPURL string `json:"cdp_url"`
}

type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// NewClient returns a client authenticated with apiKey.
// An empty baseURL means DefaultBaseURL.
func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("x-api-key", apiKey)
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(60 * time.Second)

	return &Client{http: client, log: log}
}

// StartBrowser allocates a new remote browser instance.
// The caller owns the instance and must Stop it.
func (c *Client) StartBrowser(ctx context.Context) (Instance, error) {
	var inst Instance
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"instance_type": "browser"}).
		SetResult(&inst).
		Post("/v1/start_browser")
	if err != nil {
		return Instance{}, fmt.Errorf("start browser: %w", err)
	}
	if res.IsError() {
		return Instance{}, fmt.Errorf("start browser: %s: %s", res.Status(), res.String())
	}
	if inst.ID == "" {
		return Instance{}, ErrNoInstance
	}

	c.log.Info("remote browser started", zap.String("instance", inst.ID), zap.String("status", inst.Status))
	return inst, nil
}

// CDPURL returns the websocket endpoint used to drive the instance.
func (c *Client) CDPURL(ctx context.Context, id string) (string, error) {
	var out cdpURLResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/instance/" + url.PathEscape(id) + "/cdp_url")
	if err != nil {
		return "", fmt.Errorf("cdp url: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("cdp url: %s: %s", res.Status(), res.String())
	}
	if out.CDPURL == "" {
		return "", fmt.Errorf("cdp url: empty endpoint for instance %s", id)
	}
	return out.CDPURL, nil
}

// Stop releases the instance.
func (c *Client) Stop(ctx context.Context, id string) error {
	res, err := c.http.R().
		SetContext(ctx).
		Post("/v1/instance/" + url.PathEscape(id) + "/stop")
	if err != nil {
		return fmt.Errorf("stop browser: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("stop browser: %s: %s", res.Status(), res.String())
	}

	c.log.Info("remote browser stopped", zap.String("instance", id))
	return nil
}
