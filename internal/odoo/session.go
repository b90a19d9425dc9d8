package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// SESSION / LOGIN
// =============================================================================

// VersionInfo describes the server version as reported by common.version.
type VersionInfo struct {
	ServerVersion   string `json:"server_version"`
	ServerSerie     string `json:"server_serie"`
	ProtocolVersion int    `json:"protocol_version"`
}

// Version probes the server without authenticating.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	raw, err := c.Call(ctx, "common", "version")
	if err != nil {
		return nil, err
	}
	var info VersionInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, wrapError(CodeBadResponse, false, fmt.Errorf("decode version: %w", err))
	}
	return &info, nil
}

// Login authenticates against the configured database and stores the uid
// for subsequent object calls.
func (c *Client) Login(ctx context.Context) error {
	c.log.Info("connecting to Odoo",
		zap.String("endpoint", c.endpoint),
		zap.String("db", c.config.Database),
		zap.String("user", c.config.Username),
		zap.String("password", strings.Repeat("*", len(c.config.Password))))

	raw, err := c.Call(ctx, "common", "login",
		c.config.Database, c.config.Username, c.config.Password)
	if err != nil {
		return err
	}

	// A failed login yields false instead of a uid.
	if string(raw) == "false" {
		return wrapError(CodeAuthInvalid, false,
			fmt.Errorf("login rejected for user %q on db %q", c.config.Username, c.config.Database))
	}
	uid, err := decodeInt(raw)
	if err != nil {
		return err
	}
	if uid == 0 {
		return wrapError(CodeAuthInvalid, false, fmt.Errorf("login returned uid 0"))
	}

	c.uid = uid
	c.log.Info("logged in", zap.Int64("uid", uid))
	return nil
}

// DefaultLoginTimeout bounds WaitForReady polling.
const DefaultLoginTimeout = 600 * time.Second

// WaitForReady polls Login until the server accepts the session or the
// timeout elapses. Transport failures are retried once per second; auth
// rejections fail immediately.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		err := c.Login(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if time.Now().After(deadline) {
			return wrapError(CodeLoginTimeout, false,
				fmt.Errorf("could not reach odoo after %s: %w", timeout, err))
		}
		c.log.Debug("odoo not ready, retrying", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
