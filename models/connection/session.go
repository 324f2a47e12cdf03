package connection

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	maxWriteWsRetries uint8 = 2
	backOffFactor     uint8 = 2
)

const (
	MessageTypeBytes uint8 = iota
	MessageTypeJSON
)

// Session wraps one player connection. A dropped session releases its seat;
// there is no reconnect window, the next connection simply takes the free
// seat again.
type Session struct {
	id        string
	conn      *websocket.Conn
	createdAt time.Time
	logger    zerolog.Logger

	// Guards all writes to conn. gorilla/websocket supports one concurrent
	// writer; the session's own loop and broadcasts triggered by the other
	// player's handler both write here.
	wmu sync.Mutex
}

func NewSession(id string, conn *websocket.Conn, logger zerolog.Logger) *Session {
	return &Session{
		id:        id,
		conn:      conn,
		createdAt: time.Now(),
		logger:    logger.With().Str("session_id", id).Logger(),
	}
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Conn() *websocket.Conn {
	return s.conn
}

func (s *Session) onConnErr(err error) uint8 {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		s.logger.Warn().Err(err).Msg("timeout error")
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		s.logger.Warn().Err(err).Msg("high server load/traffic error")
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
		s.logger.Info().Err(err).Msg("close error")
		return ConnLoopBreak
	}

	if websocket.IsCloseError(err, websocket.CloseProtocolError, websocket.CloseInternalServerErr, websocket.CloseTLSHandshake, websocket.CloseMandatoryExtension) {
		s.logger.Error().Err(err).Msg("critical error")
		return ConnLoopBreak
	}

	// Likely a client that is not the game application. Breaking not to
	// overwhelm the server with invalid payloads.
	if websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData, websocket.CloseMessageTooBig, websocket.ClosePolicyViolation, websocket.CloseServiceRestart, websocket.CloseNoStatusReceived) {
		s.logger.Warn().Err(err).Msg("non-critical error")
		return ConnLoopBreak
	}

	s.logger.Error().Err(err).Msg("unexpected error")
	return ConnLoopBreak
}

// writeToConnWithRetry retries transient write failures with a linear
// backoff before giving up on the connection. Writes are serialized per
// session so frames from different goroutines cannot interleave.
func (s *Session) writeToConnWithRetry(msg interface{}, msgType uint8) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	var retries uint8

writeLoop:
	for {
		var err error

		switch msgType {
		case MessageTypeJSON:
			err = s.conn.WriteJSON(msg)

		case MessageTypeBytes:
			respBytes, ok := msg.([]byte)
			if ok {
				err = s.conn.WriteMessage(websocket.TextMessage, respBytes)
			} else {
				return NewConnErr(ConnInvalidMsgType).AddDesc("msg type expected: []byte got invalid")
			}

		default:
			return NewConnErr(ConnInvalidMsgType).AddDesc("invalid message type to write with retry")
		}

		if err != nil {
			switch s.onConnErr(err) {
			case ConnLoopRetry:
				if retries < maxWriteWsRetries {
					retries++
					s.logger.Warn().Uint8("retry", retries).Msg("writing to ws failed; retrying")
					time.Sleep(time.Duration(retries*backOffFactor) * time.Second)
					continue writeLoop
				}
				s.logger.Error().Err(err).Msg("max retries reached for writing to ws")
				return NewConnErr(ConnLoopBreak)

			case ConnLoopBreak:
				return NewConnErr(ConnLoopBreak).AddDesc("breaking write loop due to:" + err.Error())
			}
		}
		return nil
	}
}

// handleReadFromConnErr classifies errors from reading the ws connection.
// ConnLoopBreak terminates the session loop.
func (s *Session) handleReadFromConnErr(err error, retries uint8) uint8 {
	switch s.onConnErr(err) {
	case ConnLoopRetry:
		if retries < maxWriteWsRetries {
			s.logger.Warn().Uint8("retry", retries).Msg("failed to read from ws conn; retrying")
			time.Sleep(time.Duration(retries*backOffFactor) * time.Second)
			return ConnLoopContinue
		}
		return ConnLoopBreak

	default:
		return ConnLoopBreak
	}
}
