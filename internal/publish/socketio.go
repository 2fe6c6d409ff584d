package publish

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const connectTimeout = 15 * time.Second

// DialOptions configures a socket.io connection.
type DialOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool

	// AckTimeout makes every emit wait for the server acknowledgement, so
	// the packet is known to be delivered before Close disconnects. Zero
	// emits without waiting.
	AckTimeout time.Duration
}

// sender is the part of a socket.io client used to emit events.
type sender interface {
	Emit(ev string, args ...any) error
}

// socketEmitter is an Emitter backed by a connected socket.io client.
type socketEmitter struct {
	io         *socket.Socket
	send       sender
	ackTimeout time.Duration
	logger     *slog.Logger
}

func (s *socketEmitter) Emit(event string, payload []byte) error {
	if s.ackTimeout <= 0 {
		if err := s.send.Emit(event, string(payload)); err != nil {
			return fmt.Errorf("failed to emit %q: %w", event, err)
		}
		return nil
	}

	acked := make(chan error, 1)
	ack := func(_ []any, err error) { acked <- err }
	if err := s.send.Emit(event, string(payload), ack); err != nil {
		return fmt.Errorf("failed to emit %q: %w", event, err)
	}

	timer := time.NewTimer(s.ackTimeout)
	defer timer.Stop()
	select {
	case err := <-acked:
		if err != nil {
			return fmt.Errorf("event %q was not acknowledged: %w", event, err)
		}
		s.logger.Debug("Event acknowledged", "event", event)
		return nil
	case <-timer.C:
		return fmt.Errorf("timed out after %s waiting for acknowledgement of %q", s.ackTimeout, event)
	}
}

func (s *socketEmitter) Close() error {
	s.logger.Info("Closing socket.io connection", "sid", s.io.Id())
	s.io.Disconnect()
	return nil
}

// Dial connects to a socket.io server over WebSocket and waits for the
// connection to be confirmed.
func Dial(ctx context.Context, opts DialOptions) (Emitter, error) {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL, "namespace", opts.Namespace)
	logger.Debug("Connecting to socket.io server...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("publish URL %q must include a scheme and host", opts.URL)
	}

	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(namespace, sockOpts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", errs[0])
			}
		}
		logger.Debug("Connection error", "error", err)
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &socketEmitter{io: io, send: io, ackTimeout: opts.AckTimeout, logger: logger}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}
}
