// Package e2e drives a running hub over REST, WebSocket and admin gRPC.
// Suites are skipped when HUB_HTTP_ADDR is not set.
package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HUB_HTTP_ADDR"`
	GRPCAddr string `envconfig:"HUB_GRPC_ADDR" default:"localhost:50051"`
	// HUB_ADMIN_TOKEN is a JWT of an admin account, the snapshot step is skipped without it
	AdminToken string `envconfig:"HUB_ADMIN_TOKEN"`
	// E2E_DEBUG_JSON dumps admin gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized step headers
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
