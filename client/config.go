package client

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Defaults of a Config.
const (
	DefaultServerAddress     = "192.168.1.8:9092"
	DefaultUpdateRate        = 10.0
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultReconnectBackoff  = time.Second
	DefaultIOTimeout         = 2 * time.Second
)

// Config configures a Client.
type Config struct {
	// ServerAddress of the monitoring server, host:port.
	ServerAddress string
	// UpdateRate is the number of joint data frames sent per second.
	UpdateRate float64
	// HeartbeatInterval is the period of the liveness check of the server.
	HeartbeatInterval time.Duration
	// ReconnectBackoff is the wait between losing the server and dialing it again.
	ReconnectBackoff time.Duration
	// IOTimeout bounds every exchange with the server and every stop command sent to an arm.
	IOTimeout time.Duration
	// StopOnDisconnect stops both arms when the server is lost, since collisions can no longer be
	// detected.
	StopOnDisconnect bool
}

// DefaultConfig returns the configuration of the reference installation.
func DefaultConfig() Config {
	return Config{
		ServerAddress:     DefaultServerAddress,
		UpdateRate:        DefaultUpdateRate,
		HeartbeatInterval: DefaultHeartbeatInterval,
		ReconnectBackoff:  DefaultReconnectBackoff,
		IOTimeout:         DefaultIOTimeout,
		StopOnDisconnect:  true,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	if cfg.ServerAddress == "" {
		return errors.New("server address is required")
	}
	if cfg.UpdateRate <= 0 {
		return errors.Errorf("update rate must be positive, got %g", cfg.UpdateRate)
	}
	if cfg.HeartbeatInterval <= 0 {
		return errors.Errorf("heartbeat interval must be positive, got %s", cfg.HeartbeatInterval)
	}
	if cfg.ReconnectBackoff < 0 {
		return errors.Errorf("reconnect backoff must not be negative, got %s", cfg.ReconnectBackoff)
	}
	if cfg.IOTimeout <= 0 {
		return errors.Errorf("io timeout must be positive, got %s", cfg.IOTimeout)
	}
	return nil
}

// Period returns the time between two joint data frames.
func (cfg Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / cfg.UpdateRate)
}

func (cfg Config) String() string {
	return fmt.Sprintf("server %s at %gHz, heartbeat %s", cfg.ServerAddress, cfg.UpdateRate, cfg.HeartbeatInterval)
}
