package aprsis

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultIOTimeout   = 10 * time.Second
	maxLineLen         = 512
)

// Dialer is the TCP Transport. The zero value dials directly with
// default timeouts.
type Dialer struct {
	Software    string // reported in the login line, no spaces
	Version     string
	DialTimeout time.Duration
	IOTimeout   time.Duration // bounds the login exchange and each write
	Proxy       string        // optional socks5:// upstream
	Log         zerolog.Logger
}

// Open connects to l.Addr(), waits for the server banner, logs in and
// checks the logresp answer.
func (d *Dialer) Open(ctx context.Context, l Login) (Session, error) {
	conn, err := d.dial(ctx, l.Addr())
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", l.Addr(), err)
	}

	s := &session{
		ctx:       ctx,
		conn:      conn,
		r:         bufio.NewReaderSize(conn, maxLineLen),
		ioTimeout: d.ioTimeout(),
	}
	// Unblock reads and writes as soon as ctx ends.
	s.stop = context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})

	if err := s.login(ctx, l, d.loginLine(l)); err != nil {
		s.Close()
		return nil, err
	}

	d.Log.Debug().
		Str("server", l.Addr()).
		Str("callsign", l.Callsign).
		Msg("APRS-IS login accepted")

	return s, nil
}

func (d *Dialer) loginLine(l Login) string {
	sw := d.Software
	if sw == "" {
		sw = "aprsinjector"
	}
	ver := d.Version
	if ver == "" {
		ver = "0"
	}
	sw = strings.ReplaceAll(sw, " ", "-")
	return fmt.Sprintf("user %s pass %s vers %s %s", l.Callsign, l.Passcode, sw, ver)
}

func (d *Dialer) dial(ctx context.Context, addr string) (net.Conn, error) {
	nd := &net.Dialer{Timeout: d.dialTimeout()}
	if d.Proxy == "" {
		return nd.DialContext(ctx, "tcp", addr)
	}

	u, err := url.Parse(d.Proxy)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy %q: %w", d.Proxy, err)
	}
	pd, err := proxy.FromURL(u, nd)
	if err != nil {
		return nil, fmt.Errorf("configuring proxy %s: %w", u.Redacted(), err)
	}
	if cd, ok := pd.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", addr)
	}
	return pd.Dial("tcp", addr)
}

func (d *Dialer) dialTimeout() time.Duration {
	if d.DialTimeout > 0 {
		return d.DialTimeout
	}
	return defaultDialTimeout
}

func (d *Dialer) ioTimeout() time.Duration {
	if d.IOTimeout > 0 {
		return d.IOTimeout
	}
	return defaultIOTimeout
}

type session struct {
	ctx       context.Context
	conn      net.Conn
	r         *bufio.Reader
	ioTimeout time.Duration
	stop      func() bool
}

func (s *session) login(ctx context.Context, l Login, line string) error {
	deadline := time.Now().Add(s.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("setting login deadline: %w", err)
	}

	// The server speaks first.
	if _, err := s.readLine(); err != nil {
		return fmt.Errorf("reading server banner: %w", err)
	}
	if err := s.writeLine(line); err != nil {
		return fmt.Errorf("sending login: %w", err)
	}

	for {
		resp, err := s.readLine()
		if err != nil {
			return fmt.Errorf("waiting for logresp: %w", err)
		}
		if strings.HasPrefix(resp, "# logresp") {
			return checkLogresp(resp, l)
		}
	}
}

// checkLogresp validates "# logresp CALL verified, server NAME".
func checkLogresp(resp string, l Login) error {
	fields := strings.Fields(resp)
	if len(fields) < 4 {
		return fmt.Errorf("%w: malformed response %q", ErrLoginRejected, resp)
	}
	// Case-insensitive on purpose: servers may echo the call in another case.
	if !strings.EqualFold(fields[2], l.Callsign) {
		return fmt.Errorf("%w: server answered for %s", ErrLoginRejected, fields[2])
	}
	// Passcode -1 logs in receive-only and is expected to stay unverified.
	if strings.TrimSuffix(fields[3], ",") != "verified" && l.Passcode != "-1" {
		return ErrUnverified
	}
	return nil
}

func (s *session) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *session) writeLine(text string) error {
	_, err := s.conn.Write([]byte(text + "\r\n"))
	return err
}

// SendLine writes text terminated by CRLF.
func (s *session) SendLine(text string) error {
	if strings.ContainsAny(text, "\r\n") {
		return ErrLineBreak
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.ioTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	return s.writeLine(text)
}

func (s *session) Close() error {
	s.stop()
	return s.conn.Close()
}
