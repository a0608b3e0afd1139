package aprsis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	sent    []string
	sendErr error
	closed  bool
}

func (s *fakeSession) SendLine(text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, text)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeTransport struct {
	session *fakeSession
	openErr error
	logins  []Login
}

func (f *fakeTransport) Open(_ context.Context, l Login) (Session, error) {
	f.logins = append(f.logins, l)
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.session = &fakeSession{}
	return f.session, nil
}

var testLogin = Login{Callsign: "N0CALL", Passcode: "13023", Host: "rotate.aprs2.net", Port: 14580}

func TestClient_Send(t *testing.T) {
	tr := &fakeTransport{}
	c := NewClient(tr)

	require.NoError(t, c.Send(context.Background(), "N0CALL>APRS,TCPIP*:>hello", testLogin))
	assert.Equal(t, []string{"N0CALL>APRS,TCPIP*:>hello"}, tr.session.sent)
	assert.True(t, tr.session.closed, "session must be closed after send")
	assert.Equal(t, []Login{testLogin}, tr.logins)
}

func TestClient_FreshSessionPerSend(t *testing.T) {
	tr := &fakeTransport{}
	c := NewClient(tr)

	require.NoError(t, c.Send(context.Background(), "a", testLogin))
	first := tr.session
	require.NoError(t, c.Send(context.Background(), "b", testLogin))

	assert.NotSame(t, first, tr.session)
	assert.Len(t, tr.logins, 2)
}

func TestClient_OpenFailure(t *testing.T) {
	tr := &fakeTransport{openErr: ErrUnverified}
	c := NewClient(tr)

	err := c.Send(context.Background(), "x", testLogin)

	var te *TransmitError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "open", te.Op)
	assert.Equal(t, "rotate.aprs2.net:14580", te.Server)
	assert.ErrorIs(t, err, ErrUnverified)
}

type failingTransport struct{ s *fakeSession }

func (f *failingTransport) Open(context.Context, Login) (Session, error) { return f.s, nil }

func TestClient_SendFailureStillCloses(t *testing.T) {
	boom := errors.New("broken pipe")
	s := &fakeSession{sendErr: boom}
	c := NewClient(&failingTransport{s: s})

	err := c.Send(context.Background(), "x", testLogin)

	var te *TransmitError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "send", te.Op)
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.closed)
}
