package kafka

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// bufferedDialer sizes the socket receive buffer of every broker connection
// and optionally wraps it in TLS. All drivers share it so --socket-buffer-size
// means the same thing whichever client is in use.
type bufferedDialer struct {
	net.Dialer
	readBuffer int
	tls        *tls.Config
}

func newDialer(cfg Config) *bufferedDialer {
	d := &bufferedDialer{
		Dialer:     net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second},
		readBuffer: cfg.Subscription.SocketBufferSize,
	}
	if cfg.TLSEn {
		d.tls = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return d
}

func (d *bufferedDialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

func (d *bufferedDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok && d.readBuffer > 0 {
		if err := tc.SetReadBuffer(d.readBuffer); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if d.tls == nil {
		return conn, nil
	}
	tc := d.tls.Clone()
	if tc.ServerName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		tc.ServerName = host
	}
	return tls.Client(conn, tc), nil
}
