package net

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"skadi/internal/core/order"
)

type fakeEngine struct {
	insertOnSubmit bool
	submitErr      error
	cancelErr      error
	loggedBook     bool
}

func (f *fakeEngine) Submit(side order.Side, symbol string, qty int64, price float64) (bool, error) {
	return f.insertOnSubmit, f.submitErr
}

func (f *fakeEngine) Cancel(symbol string, orderUUID string) error {
	return f.cancelErr
}

func (f *fakeEngine) LogBook() { f.loggedBook = true }

func newTestServer(e Engine) (*Server, net.Conn, net.Conn) {
	s := New(":0", e, 1)
	serverConn, clientConn := net.Pipe()
	s.addClientSession(serverConn)
	return s, serverConn, clientConn
}

func readWithDeadline(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, n)
	read, err := conn.Read(buf)
	assert.NoError(t, err)
	return buf[:read]
}

func TestHandleMessage_NewOrder_SendsAck(t *testing.T) {
	e := &fakeEngine{insertOnSubmit: true}
	s, serverConn, clientConn := newTestServer(e)
	defer serverConn.Close()
	defer clientConn.Close()

	addr := serverConn.RemoteAddr().String()
	go func() {
		err := s.handleMessage(ClientMessage{
			clientAddress: addr,
			message: NewOrderMessage{
				BaseMessage: BaseMessage{TypeOf: NewOrder},
				Side:        order.Bid,
				Symbol:      "AAPL",
				LimitPrice:  100.0,
				Quantity:    10,
			},
		})
		assert.NoError(t, err)
	}()

	buf := readWithDeadline(t, clientConn, 256)
	assert.Equal(t, byte(ExecutionReport), buf[0])
	assert.Equal(t, "resting", string(buf[reportFixedHeaderLen:]))
}

func TestHandleMessage_CancelOrder_PropagatesEngineError(t *testing.T) {
	wantErr := errors.New("no cancel path")
	e := &fakeEngine{cancelErr: wantErr}
	s, serverConn, clientConn := newTestServer(e)
	defer serverConn.Close()
	defer clientConn.Close()

	err := s.handleMessage(ClientMessage{
		clientAddress: serverConn.RemoteAddr().String(),
		message: CancelOrderMessage{
			BaseMessage: BaseMessage{TypeOf: CancelOrder},
			Symbol:      "AAPL",
			OrderUUID:   "0123456789abcdef",
		},
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestHandleMessage_LogBook_InvokesBookLogger(t *testing.T) {
	e := &fakeEngine{}
	s, serverConn, clientConn := newTestServer(e)
	defer serverConn.Close()
	defer clientConn.Close()

	err := s.handleMessage(ClientMessage{
		clientAddress: serverConn.RemoteAddr().String(),
		message:       BaseMessage{TypeOf: LogBook},
	})
	assert.NoError(t, err)
	assert.True(t, e.loggedBook)
}

func TestHandleMessage_UnknownType_ReturnsError(t *testing.T) {
	e := &fakeEngine{}
	s, serverConn, clientConn := newTestServer(e)
	defer serverConn.Close()
	defer clientConn.Close()

	err := s.handleMessage(ClientMessage{
		clientAddress: serverConn.RemoteAddr().String(),
		message:       BaseMessage{TypeOf: Heartbeat},
	})
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestAddDeleteClientSession(t *testing.T) {
	s := New(":0", &fakeEngine{}, 1)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	s.addClientSession(serverConn)
	addr := serverConn.RemoteAddr().String()

	s.clientSessionsLock.Lock()
	_, ok := s.clientSessions[addr]
	s.clientSessionsLock.Unlock()
	assert.True(t, ok)

	s.deleteClientSession(addr)
	s.clientSessionsLock.Lock()
	_, ok = s.clientSessions[addr]
	s.clientSessionsLock.Unlock()
	assert.False(t, ok)
}
