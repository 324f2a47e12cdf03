package connection

import (
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/chubibyy/Vidar-DEV/internal/apperr"
)

type SessionManager interface {
	GenerateNewSession(conn *websocket.Conn) *Session
	FindSession(sessionId string) (*Session, error)
	TerminateSession(sessionId string)

	WriteToSessionConn(session *Session, msg interface{}, msgType uint8) error
	ReadFromSessionConn(session *Session) (int, []byte, error)
	Communicate(receiverSessionId string, msg interface{}, msgType uint8) error

	CleanupPeriodically()
}

// ArenaSessionManager owns every live player connection of the dedicated
// server process.
type ArenaSessionManager struct {
	cleanupInterval time.Duration
	sessions        map[string]*Session
	logger          zerolog.Logger
	mu              sync.RWMutex
}

var _ SessionManager = (*ArenaSessionManager)(nil)

func NewArenaSessionManager(logger zerolog.Logger) *ArenaSessionManager {
	initMapSize := 4

	return &ArenaSessionManager{
		sessions:        make(map[string]*Session, initMapSize),
		cleanupInterval: time.Minute * 20,
		logger:          logger,
	}
}

func (asm *ArenaSessionManager) GenerateNewSession(conn *websocket.Conn) *Session {
	sessionId := base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))
	session := NewSession(sessionId, conn, asm.logger)

	asm.mu.Lock()
	asm.sessions[sessionId] = session
	asm.mu.Unlock()

	return session
}

func (asm *ArenaSessionManager) FindSession(sessionId string) (*Session, error) {
	asm.mu.RLock()
	defer asm.mu.RUnlock()

	session, prs := asm.sessions[sessionId]
	if !prs {
		return nil, apperr.ErrSessionNotFound(sessionId)
	}
	return session, nil
}

func (asm *ArenaSessionManager) TerminateSession(sessionId string) {
	asm.mu.Lock()
	delete(asm.sessions, sessionId)
	asm.mu.Unlock()
}

func (asm *ArenaSessionManager) WriteToSessionConn(session *Session, msg interface{}, msgType uint8) error {
	return session.writeToConnWithRetry(msg, msgType)
}

func (asm *ArenaSessionManager) ReadFromSessionConn(session *Session) (int, []byte, error) {
	var retries uint8

	for {
		messageType, payload, err := session.conn.ReadMessage()
		if err == nil {
			return messageType, payload, nil
		}

		switch session.handleReadFromConnErr(err, retries) {
		case ConnLoopContinue:
			retries++
			continue

		default:
			return -1, []byte{}, err
		}
	}
}

// Communicate sends msg to another live session, the push half of every
// broadcast.
func (asm *ArenaSessionManager) Communicate(receiverSessionId string, msg interface{}, msgType uint8) error {
	receiverSession, err := asm.FindSession(receiverSessionId)
	if err != nil {
		return err
	}
	return asm.WriteToSessionConn(receiverSession, msg, msgType)
}

// CleanupPeriodically drops sessions older than the cleanup interval so a
// connection that never terminated cleanly cannot dangle forever.
func (asm *ArenaSessionManager) CleanupPeriodically() {
	assumedClosedConns := 4

	for {
		time.Sleep(asm.cleanupInterval)

		asm.mu.Lock()
		toDelete := make([]string, 0, assumedClosedConns)

		for id, session := range asm.sessions {
			if time.Since(session.createdAt) > asm.cleanupInterval {
				toDelete = append(toDelete, id)
			}
		}

		for _, id := range toDelete {
			delete(asm.sessions, id)
			asm.logger.Info().Str("session_id", id).Msg("cleaned up stale session")
		}
		asm.mu.Unlock()
	}
}
