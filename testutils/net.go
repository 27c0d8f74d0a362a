// Package testutils contains helpers for tests that run servers on local ports.
package testutils

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

var waitDur = 5 * time.Second

// FreeLocalAddress returns a localhost address with a port nothing listens on.
func FreeLocalAddress() (string, error) {
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return "", err
	}
	address := listener.Addr().String()
	if err := listener.Close(); err != nil {
		return "", err
	}
	return address, nil
}

// WaitSuccessfulDial waits for a dial attempt to address to succeed.
func WaitSuccessfulDial(address string) error {
	ctx, cancel := context.WithTimeout(context.Background(), waitDur)
	defer cancel()
	lastErr := errors.New("timed out dialing")
	for {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", address)
		if err == nil {
			return conn.Close()
		}
		lastErr = err
		if !goutils.SelectContextOrWait(ctx, 10*time.Millisecond) {
			return errors.Wrapf(lastErr, "failed to dial %s", address)
		}
	}
}
