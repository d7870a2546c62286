// Package transport implements the reactor's read loop: framing raw
// bytes off the wire into complete control packets and handing each
// one to the broker's per-type handler.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/harrowgate/goqtt/internal/broker"
	"github.com/harrowgate/goqtt/internal/logger"
	pkt "github.com/harrowgate/goqtt/internal/packet"
	"github.com/harrowgate/goqtt/pkg/er"
)

// keepAliveGrace is the multiplier MQTT 3.1.1 §3.1.2.10 allows before
// a client's declared KeepAlive is treated as a dead connection.
const keepAliveGrace = 1.5

type TCPServer struct {
	addr               string
	listener           net.Listener
	broker             *broker.Broker
	log                *logger.Logger
	isShuttingdown     atomic.Bool
	maxConnections     int
	currentConnections atomic.Int32
}

// New creates a new TCPServer instance, delegating all command
// handling to the given Broker.
func New(addr string, b *broker.Broker, log *logger.Logger) *TCPServer {
	if log == nil {
		log = logger.NewMQTTLogger("transport")
	}
	return &TCPServer{
		addr:           addr,
		broker:         b,
		log:            log,
		maxConnections: 1000,
	}
}

// Start begins accepting TCP connections
func (srv *TCPServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", srv.addr))
	if err != nil {
		return err
	}
	srv.listener = listener
	go srv.accept(ctx)
	return nil
}

// Stop shuts down the listener gracefully
func (srv *TCPServer) Stop() error {
	srv.isShuttingdown.Store(true)
	if srv.listener != nil {
		return srv.listener.Close()
	}
	return nil
}

func (srv *TCPServer) accept(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			srv.log.Info("shutting down accept loop")
			return
		default:
			conn, err := srv.listener.Accept()
			if err != nil {
				if srv.isShuttingdown.Load() {
					return
				}
				srv.log.LogError(err, "accept error")
				continue
			}
			go srv.handleConnection(conn)
		}
	}
}

// checkServerAvailability reports whether the server can accept a new connection
func (srv *TCPServer) checkServerAvailability() string {
	if srv.isShuttingdown.Load() {
		return "server is shutting down"
	}
	if srv.currentConnections.Load() >= int32(srv.maxConnections) {
		return "maximum connections exceeded"
	}
	return ""
}

// handleConnection is the reactor's per-connection read loop: frame
// one raw packet at a time, parse it, and dispatch it to the matching
// broker handler. CONNECT is handled specially since no Session exists
// before it succeeds; every other type requires one already attached.
func (srv *TCPServer) handleConnection(conn net.Conn) {
	addr := slog.String("remote_addr", conn.RemoteAddr().String())
	var session *broker.Session
	graceful := false

	defer func() {
		// A graceful DISCONNECT already ran its teardown through
		// Broker.Dispatch; only a dropped or protocol-violating
		// connection still needs the ungraceful path run here.
		if session != nil && !graceful {
			srv.broker.HandleUngracefulDisconnect(session)
		}
		conn.Close()
		srv.currentConnections.Add(-1)
	}()

	if reason := srv.checkServerAvailability(); reason != "" {
		srv.log.Warn("rejecting connection", addr, slog.String("reason", reason))
		conn.Write(pkt.NewConnAck(false, pkt.ServerUnavailable))
		return
	}
	srv.currentConnections.Add(1)

	reader := bufio.NewReader(conn)

	for {
		if session != nil && session.KeepAlive > 0 {
			grace := time.Duration(float64(session.KeepAlive) * keepAliveGrace * float64(time.Second))
			conn.SetReadDeadline(time.Now().Add(grace))
		}

		rawPacket, err := readPacket(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				srv.log.LogError(err, "read error", addr)
			}
			return
		}

		parsed, err := pkt.Parse(rawPacket)
		if err != nil {
			srv.log.LogError(err, "parse error", addr)
			if session == nil {
				conn.Write(pkt.NewConnAck(false, connackCodeFor(err)))
			}
			return
		}

		if session == nil {
			if parsed.Type != pkt.CONNECT {
				conn.Write(pkt.NewConnAck(false, pkt.UnacceptableProtocolVersion))
				return
			}
			sess, outcome, err := srv.broker.HandleConnect(conn, parsed.Connect)
			if err != nil {
				srv.log.LogError(err, "connect handler failed", addr)
				return
			}
			if outcome == broker.AuthReject || outcome == broker.ClientDisconnect {
				return
			}
			session = sess
			continue
		}

		if parsed.Type == pkt.DISCONNECT {
			graceful = true
		}

		outcome, err := srv.broker.Dispatch(session, parsed)
		if err != nil {
			srv.log.LogError(err, "handler failed", addr)
		}
		if outcome == broker.ClientDisconnect || outcome == broker.AuthReject {
			return
		}
	}
}

// readPacket frames one complete control packet: a 1-byte fixed
// header, the variable-length Remaining Length field, and that many
// bytes of variable header plus payload.
func readPacket(reader *bufio.Reader) ([]byte, error) {
	fixedHeaderByte, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	remLenBuf := make([]byte, 4)
	remLenOffset := 0
	remainingLength := 0
	multiplier := 1

	for {
		if remLenOffset >= len(remLenBuf) {
			return nil, &er.Err{Context: "readPacket", Message: er.ErrInvalidPacketLength}
		}
		b, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		remLenBuf[remLenOffset] = b
		remLenOffset++
		remainingLength += int(b&0x7F) * multiplier
		multiplier *= 128
		if (b & 0x80) == 0 {
			break
		}
	}

	rawPacket := make([]byte, 1+remLenOffset+remainingLength)
	rawPacket[0] = fixedHeaderByte
	copy(rawPacket[1:1+remLenOffset], remLenBuf[:remLenOffset])

	if _, err := io.ReadFull(reader, rawPacket[1+remLenOffset:]); err != nil {
		return nil, err
	}
	return rawPacket, nil
}

// connackCodeFor maps a CONNECT parse failure onto the closest MQTT
// 3.1.1 CONNACK return code, per spec.md §4.2's error handling.
func connackCodeFor(err error) byte {
	switch {
	case errors.Is(err, er.ErrUnsupportedProtocolLevel), errors.Is(err, er.ErrUnsupportedProtocolName):
		return pkt.UnacceptableProtocolVersion
	case errors.Is(err, er.ErrInvalidCharsClientID), errors.Is(err, er.ErrClientIDLengthExceed):
		return pkt.IdentifierRejected
	case errors.Is(err, er.ErrEmptyAndCleanSessionClientID):
		return pkt.NotAuthorized
	case errors.Is(err, er.ErrPasswordWithoutUsername), errors.Is(err, er.ErrMalformedUsernameField), errors.Is(err, er.ErrMalformedPasswordField):
		return pkt.BadUsernameOrPassword
	default:
		return pkt.ServerUnavailable
	}
}
