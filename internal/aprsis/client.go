// Package aprsis sends single lines to an APRS-IS server, one login
// session per line.
package aprsis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Login failures reported by the server.
var (
	ErrLoginRejected = errors.New("login rejected")
	ErrUnverified    = errors.New("login unverified, check passcode")
	ErrLineBreak     = errors.New("line contains CR or LF")
)

// Login identifies the station and the server it talks to.
type Login struct {
	Callsign string
	Passcode string
	Host     string
	Port     int
}

// Addr returns host:port.
func (l Login) Addr() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// Session is an authenticated APRS-IS connection.
type Session interface {
	SendLine(text string) error
	Close() error
}

// Transport opens authenticated sessions.
type Transport interface {
	Open(ctx context.Context, l Login) (Session, error)
}

// TransmitError describes a failed send.
type TransmitError struct {
	Op       string // "open" or "send"
	Server   string
	Callsign string
	Err      error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("aprs-is %s %s as %s: %v", e.Op, e.Server, e.Callsign, e.Err)
}

func (e *TransmitError) Unwrap() error {
	return e.Err
}

// Client delivers lines through a fresh session each time, so a stale
// connection never outlives a single send.
type Client struct {
	transport Transport
}

// NewClient returns a Client using t.
func NewClient(t Transport) *Client {
	return &Client{transport: t}
}

// Send opens a session for l, writes line and closes the session whatever
// the outcome. Errors are *TransmitError.
func (c *Client) Send(ctx context.Context, line string, l Login) error {
	s, err := c.transport.Open(ctx, l)
	if err != nil {
		return &TransmitError{Op: "open", Server: l.Addr(), Callsign: l.Callsign, Err: err}
	}
	// The line is already written when Close fails, so its error is not
	// reported as a failed send.
	defer s.Close()

	if err := s.SendLine(line); err != nil {
		return &TransmitError{Op: "send", Server: l.Addr(), Callsign: l.Callsign, Err: err}
	}
	return nil
}
