package events

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// Embedded is an in-process NATS server owned by the daemon. Every window of
// the application connects to it to receive lifecycle broadcasts.
type Embedded struct {
	srv *natsserver.Server
}

// ErrNoToken is returned when the embedded server would start without auth.
var ErrNoToken = errors.New("embedded NATS needs an auth token")

// StartEmbedded starts a NATS server bound to listen ("host:port"; port 0 or
// -1 picks a random port) and waits until it accepts connections. Clients
// must present token (nats.Token) to connect.
func StartEmbedded(listen, token string) (*Embedded, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, fmt.Errorf("nats listen %q: %w", listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("nats listen port %q: %w", portStr, err)
	}
	if port == 0 {
		port = -1
	}

	opts := &natsserver.Options{
		ServerName: "quickcopy",
		Host:       host,
		Port:       port,
		NoSigs:     true,
		NoLog:      true,

		Authorization: token,
	}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("starting embedded NATS: %w", err)
	}
	srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("embedded NATS on %s not ready", listen)
	}
	return &Embedded{srv: srv}, nil
}

// ClientURL returns the URL clients use to connect.
func (e *Embedded) ClientURL() string {
	return e.srv.ClientURL()
}

// Shutdown stops the server and waits for it to exit.
func (e *Embedded) Shutdown() {
	e.srv.Shutdown()
	e.srv.WaitForShutdown()
}
