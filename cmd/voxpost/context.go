package main

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"voxpost/internal/api"
	"voxpost/internal/config"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string
	tokenFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, apiFlag, tokenFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		apiFlag:    apiFlag,
		tokenFlag:  tokenFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) baseURL() string {
	if value := flagValue(c.apiFlag); value != "" {
		return value
	}
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return api.BaseURL(config.Default().API.Bind)
	}
	return api.BaseURL(cfg.API.Bind)
}

func (c *commandContext) token() string {
	if value := flagValue(c.tokenFlag); value != "" {
		return value
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.API.Token
	}
	return ""
}

func (c *commandContext) client() *api.Client {
	return api.NewClient(c.baseURL(), c.token())
}

// wrapDialError turns connection failures into a hint to start the daemon.
func (c *commandContext) wrapDialError(err error) error {
	if err == nil {
		return nil
	}
	var netErr *net.OpError
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon at %s: connection refused; start it with `voxpost serve`", c.baseURL())
	case errors.As(err, &netErr):
		return fmt.Errorf("connect to daemon at %s: %w", c.baseURL(), err)
	default:
		return err
	}
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
