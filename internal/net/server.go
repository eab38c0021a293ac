package net

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"skadi/internal/core/order"
	"skadi/internal/workerpool"
)

const (
	MaxRecvSize        = 4 * 1024
	defaultConnTimeout = time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession tracks one connected TCP session.
type ClientSession struct {
	conn net.Conn
}

// ClientMessage links a parsed message to the connection it arrived on.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// Engine is the subset of the matching engine the server drives.
type Engine interface {
	Submit(side order.Side, symbol string, qty int64, price float64) (bool, error)
	Cancel(symbol string, orderUUID string) error
}

// BookLogger is implemented by engines that can dump their book state for
// the diagnostic LogBook message.
type BookLogger interface {
	LogBook()
}

type Server struct {
	addr               string
	engine             Engine
	pool               workerpool.Pool
	cancel             context.CancelFunc
	clientSessions     map[string]ClientSession
	clientSessionsLock sync.Mutex
	clientMessages     chan ClientMessage
}

// New constructs a server listening on addr, driving engine, with a worker
// pool of the given size handling connections.
func New(addr string, engine Engine, workers int) *Server {
	pool := workerpool.New(workers)
	return &Server{
		addr:           addr,
		engine:         engine,
		pool:           pool,
		clientSessions: make(map[string]ClientSession),
		clientMessages: make(chan ClientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run listens on addr until ctx is cancelled, dispatching every accepted
// connection to the worker pool and every parsed message to the session
// handler goroutine.
func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("addr", s.addr).Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			log.Info().Str("address", conn.RemoteAddr().String()).Msg("new client added")
			s.addClientSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

func (s *Server) reportError(clientAddress string, err error) {
	s.clientSessionsLock.Lock()
	client, ok := s.clientSessions[clientAddress]
	s.clientSessionsLock.Unlock()
	if !ok {
		return
	}

	report, serErr := errorReport(err)
	if serErr != nil {
		log.Error().Err(serErr).Msg("unable to serialize error report")
		return
	}
	if _, writeErr := client.conn.Write(report); writeErr != nil {
		s.deleteClientSession(clientAddress)
	}
}

func (s *Server) reportAck(clientAddress string, side order.Side, symbol string, qty uint64, price float64, inserted bool) {
	s.clientSessionsLock.Lock()
	client, ok := s.clientSessions[clientAddress]
	s.clientSessionsLock.Unlock()
	if !ok {
		return
	}

	report, err := ackReport(side, symbol, qty, price, inserted)
	if err != nil {
		log.Error().Err(err).Msg("unable to serialize ack report")
		return
	}
	if _, writeErr := client.conn.Write(report); writeErr != nil {
		s.deleteClientSession(clientAddress)
	}
}

// sessionHandler drains parsed messages and applies their high-level
// session logic, one at a time, serializing access to the engine's
// book-logging path and client-session map.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			if err := s.handleMessage(message); err != nil {
				log.Error().
					Err(err).
					Str("clientAddress", message.clientAddress).
					Msg("error handling message")
				s.reportError(message.clientAddress, err)
			}
		}
	}
}

func (s *Server) handleMessage(message ClientMessage) error {
	switch message.message.GetType() {
	case NewOrder:
		m, ok := message.message.(NewOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		inserted, err := s.engine.Submit(m.Side, m.Symbol, int64(m.Quantity), m.LimitPrice)
		if err != nil {
			return err
		}
		s.reportAck(message.clientAddress, m.Side, m.Symbol, m.Quantity, m.LimitPrice, inserted)
	case CancelOrder:
		m, ok := message.message.(CancelOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		return s.engine.Cancel(m.Symbol, m.OrderUUID)
	case LogBook:
		if logger, ok := s.engine.(BookLogger); ok {
			logger.LogBook()
		}
	default:
		log.Error().
			Int("messageType", int(message.message.GetType())).
			Msg("invalid message type")
		return ErrInvalidMessageType
	}
	return nil
}

// handleConnection reads one message off conn, hands it to the session
// handler, and requeues the connection for its next message. Any error
// returned here is fatal to the worker that hit it; the pool replaces it.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed setting deadline")
		s.closeConn(conn)
		return nil
	}

	buffer := make([]byte, MaxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			s.deleteClientSession(conn.RemoteAddr().String())
			s.closeConn(conn)
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			s.reportError(conn.RemoteAddr().String(), err)
			s.pool.AddTask(conn)
			return nil
		}

		s.clientMessages <- ClientMessage{
			message:       message,
			clientAddress: conn.RemoteAddr().String(),
		}
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) closeConn(conn net.Conn) {
	if err := conn.Close(); err != nil {
		log.Error().Str("address", conn.RemoteAddr().String()).Err(err).Msg("error closing connection")
	}
}

func (s *Server) addClientSession(conn net.Conn) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{conn: conn}
}

func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	delete(s.clientSessions, address)
}
