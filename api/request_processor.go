package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sqlc-dev/pqtype"

	"github.com/chubibyy/Vidar-DEV/db/sqlc"
	mc "github.com/chubibyy/Vidar-DEV/models/connection"
	mg "github.com/chubibyy/Vidar-DEV/models/game"
)

var upgrader = websocket.Upgrader{
	// good average time since this is not a high-latency operation such as video streaming
	HandshakeTimeout: time.Second * 5,

	// probably more than enough but this is a good average size
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RequestProcessor is the server side of the wire protocol: it upgrades
// connections, binds them to match seats, validates every action through
// the authoritative match, and pushes the canonical state to all players
// after each accepted mutation.
type RequestProcessor struct {
	sessionManager mc.SessionManager
	match          *mg.Match
	q              sqlc.Querier
	ipnet          net.IPNet
	logger         zerolog.Logger

	// One publisher at a time: held across mutate+broadcast so snapshots
	// reach clients in the order the match produced them.
	pubMu *sync.Mutex
}

func NewRequestProcessor(
	sessionManager mc.SessionManager,
	match *mg.Match,
	q sqlc.Querier,
	ipnet net.IPNet,
	logger zerolog.Logger,
) RequestProcessor {
	return RequestProcessor{
		sessionManager: sessionManager,
		match:          match,
		q:              q,
		ipnet:          ipnet,
		logger:         logger,
		pubMu:          &sync.Mutex{},
	}
}

// Expose this method to use it in testing
func (rp RequestProcessor) GetIpNet() net.IPNet {
	return rp.ipnet
}

func (rp RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		rp.logger.Error().Err(err).Msg("ws upgrade failed")
		http.Error(w, "could not open websocket connection", http.StatusBadRequest)
		return
	}

	rp.logger.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("a new connection established")
	rp.processSessionRequests(rp.sessionManager.GenerateNewSession(conn))
}

func (rp RequestProcessor) processSessionRequests(session *mc.Session) {
	sessionId := session.Id()

	defer func() {
		rp.match.ReleaseSeat(sessionId)
		if session.Conn() != nil {
			session.Conn().Close()
		}
		rp.sessionManager.TerminateSession(sessionId)
	}()

	resp := mc.NewMessage[mc.RespSessionId](mc.CodeSessionID)
	resp.AddPayload(mc.RespSessionId{SessionID: sessionId})
	if err := rp.sessionManager.WriteToSessionConn(session, resp, mc.MessageTypeJSON); err != nil {
		return
	}

	if !rp.handleSeatAssignment(session, sessionId) {
		return
	}

sessionLoop:
	for {
		_, payload, err := rp.sessionManager.ReadFromSessionConn(session)
		if err != nil {
			// Read retries are exhausted; the connection is gone.
			break sessionLoop
		}

		var signal mc.Signal
		if err := json.Unmarshal(payload, &signal); err != nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeSignalAbsent)
			msg.AddError("incoming req payload must contain 'code' field", "")
			if err = rp.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
			continue sessionLoop
		}

		switch signal.Code {

		case mc.CodeAdvanceMove:
			if !rp.handleAdvanceMove(session, sessionId) {
				break sessionLoop
			}

		case mc.CodeEndTurn:
			if !rp.handleEndTurn(session, sessionId) {
				break sessionLoop
			}

		case mc.CodePlaceUnit:
			var req mc.Message[mc.ReqPlaceUnit]
			if err := json.Unmarshal(payload, &req); err != nil {
				if !rp.rejectAction(session, mc.CodePlaceUnit, err) {
					break sessionLoop
				}
				continue sessionLoop
			}
			if !rp.handlePlaceUnit(session, sessionId, req.Payload) {
				break sessionLoop
			}

		case mc.CodeSummonUnit:
			var req mc.Message[mc.ReqSummonUnit]
			if err := json.Unmarshal(payload, &req); err != nil {
				if !rp.rejectAction(session, mc.CodeSummonUnit, err) {
					break sessionLoop
				}
				continue sessionLoop
			}
			if !rp.handleSummonUnit(session, sessionId, req.Payload) {
				break sessionLoop
			}

		case mc.CodeAttackUnit:
			var req mc.Message[mc.ReqAttackUnit]
			if err := json.Unmarshal(payload, &req); err != nil {
				if !rp.rejectAction(session, mc.CodeAttackUnit, err) {
					break sessionLoop
				}
				continue sessionLoop
			}
			if !rp.handleAttackUnit(session, sessionId, req.Payload) {
				break sessionLoop
			}

		default:
			respInvalidSignal := mc.NewMessage[mc.NoPayload](mc.CodeInvalidSignal)
			respInvalidSignal.AddError("", "invalid code in the incoming payload")
			if err := rp.sessionManager.WriteToSessionConn(session, respInvalidSignal, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
		}
	}
}

// handleSeatAssignment binds the connection to the next free seat and
// announces it. Seats fill in arrival order; the third connection is refused
// before it can touch the board.
func (rp RequestProcessor) handleSeatAssignment(session *mc.Session, sessionId string) bool {
	rp.pubMu.Lock()
	defer rp.pubMu.Unlock()

	seat, board, err := rp.match.RegisterSeat(sessionId)
	if err != nil {
		full := mc.NewMessage[mc.NoPayload](mc.CodeMatchFull)
		full.AddError("", "both seats are occupied")
		_ = rp.sessionManager.WriteToSessionConn(session, full, mc.MessageTypeJSON)
		return false
	}

	if seat == 0 {
		rp.incrementMatchesCreated()
	}

	seatResp := mc.NewMessage[mc.RespSeatAssigned](mc.CodeSeatAssigned)
	seatResp.AddPayload(mc.RespSeatAssigned{Seat: seat, MatchUuid: rp.match.Uuid()})
	if err := rp.sessionManager.WriteToSessionConn(session, seatResp, mc.MessageTypeJSON); err != nil {
		return false
	}

	rp.broadcastBoard(board)
	return true
}

func (rp RequestProcessor) handleAdvanceMove(session *mc.Session, sessionId string) bool {
	rp.pubMu.Lock()
	defer rp.pubMu.Unlock()

	board, err := rp.match.AdvanceMove(sessionId)
	if err != nil {
		return rp.rejectAction(session, mc.CodeAdvanceMove, err)
	}
	rp.broadcastBoard(board)
	return true
}

func (rp RequestProcessor) handleEndTurn(session *mc.Session, sessionId string) bool {
	rp.pubMu.Lock()
	defer rp.pubMu.Unlock()

	board, err := rp.match.EndTurn(sessionId)
	if err != nil {
		return rp.rejectAction(session, mc.CodeEndTurn, err)
	}
	rp.broadcastBoard(board)
	return true
}

func (rp RequestProcessor) handlePlaceUnit(session *mc.Session, sessionId string, req mc.ReqPlaceUnit) bool {
	rp.pubMu.Lock()
	defer rp.pubMu.Unlock()

	unit, board, err := rp.match.PlaceUnit(sessionId, req.CardId, req.Position)
	return rp.finishSpawn(session, unit, board, err)
}

func (rp RequestProcessor) handleSummonUnit(session *mc.Session, sessionId string, req mc.ReqSummonUnit) bool {
	rp.pubMu.Lock()
	defer rp.pubMu.Unlock()

	unit, board, err := rp.match.SummonUnit(sessionId, req.CardId)
	return rp.finishSpawn(session, unit, board, err)
}

// handleAttackUnit applies a player-directed attack. A surviving target is
// pushed as a unit state, a killed one as a despawn announcement.
func (rp RequestProcessor) handleAttackUnit(session *mc.Session, sessionId string, req mc.ReqAttackUnit) bool {
	rp.pubMu.Lock()
	defer rp.pubMu.Unlock()

	target, despawned, err := rp.match.AttackUnit(sessionId, req.AttackerEntityId, req.TargetEntityId)
	if err != nil {
		return rp.rejectAction(session, mc.CodeAttackUnit, err)
	}

	if despawned {
		gone := mc.NewMessage[mc.RespUnitDespawned](mc.CodeUnitDespawned)
		gone.AddPayload(mc.RespUnitDespawned{EntityId: target.Id})
		rp.broadcast(gone)
	} else {
		unitMsg := mc.NewMessage[mc.RespUnitState](mc.CodeUnitState)
		unitMsg.AddPayload(mc.RespUnitState{Unit: target})
		rp.broadcast(unitMsg)
	}

	rp.broadcastBoard(rp.match.Board())
	return true
}

// rejectAction tells only the sender why their request changed nothing.
// Rejections never mutate state and never broadcast. Returns false when the
// sender's connection is beyond saving.
func (rp RequestProcessor) rejectAction(session *mc.Session, code uint8, actionErr error) bool {
	msg := mc.NewMessage[mc.NoPayload](code)
	msg.AddError(actionErr.Error(), "action rejected")
	return rp.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON) == nil
}

// finishSpawn handles the shared tail of PlaceUnit and SummonUnit: a
// per-requester placement result (+ camera focus on success) and a
// state/unit push to everyone.
func (rp RequestProcessor) finishSpawn(session *mc.Session, unit mg.UnitEntity, board mg.BoardState, spawnErr error) bool {
	if spawnErr != nil {
		result := mc.NewMessage[mc.RespPlacementResult](mc.CodePlacementResult)
		result.AddPayload(mc.RespPlacementResult{Ok: false, Reason: spawnErr.Error()})
		return rp.sessionManager.WriteToSessionConn(session, result, mc.MessageTypeJSON) == nil
	}

	rp.incrementUnitsPlaced()

	result := mc.NewMessage[mc.RespPlacementResult](mc.CodePlacementResult)
	result.AddPayload(mc.RespPlacementResult{Ok: true, EntityId: unit.Id})
	if err := rp.sessionManager.WriteToSessionConn(session, result, mc.MessageTypeJSON); err != nil {
		return false
	}

	focus := mc.NewMessage[mc.RespFocusEntity](mc.CodeFocusEntity)
	focus.AddPayload(mc.RespFocusEntity{EntityId: unit.Id})
	if err := rp.sessionManager.WriteToSessionConn(session, focus, mc.MessageTypeJSON); err != nil {
		return false
	}

	unitMsg := mc.NewMessage[mc.RespUnitState](mc.CodeUnitState)
	unitMsg.AddPayload(mc.RespUnitState{Unit: unit})
	rp.broadcast(unitMsg)

	rp.broadcastBoard(board)
	return true
}

func (rp RequestProcessor) broadcastBoard(board mg.BoardState) {
	msg := mc.NewMessage[mc.RespStateUpdate](mc.CodeStateUpdate)
	msg.AddPayload(mc.RespStateUpdate{Board: board})
	rp.broadcast(msg)
}

// broadcast pushes msg to every seated connection. A failed write to one
// player is logged and does not block the push to the other; that player's
// own session loop notices the dead connection and releases the seat.
func (rp RequestProcessor) broadcast(msg interface{}) {
	for _, receiverId := range rp.match.SeatSessions() {
		if err := rp.sessionManager.Communicate(receiverId, msg, mc.MessageTypeJSON); err != nil {
			rp.logger.Warn().Err(err).Str("session_id", receiverId).Msg("broadcast write failed")
		}
	}
}

func (rp RequestProcessor) incrementMatchesCreated() {
	if rp.q == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := rp.q.AnalyticsIncrementMatchesCreatedCount(ctx, pqtype.Inet{IPNet: rp.ipnet, Valid: true}); err != nil {
		// for now not killing the match for it
		rp.logger.Warn().Err(err).Msg("failed to record match creation")
	}
}

func (rp RequestProcessor) incrementUnitsPlaced() {
	if rp.q == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := rp.q.AnalyticsIncrementUnitsPlacedCount(ctx, pqtype.Inet{IPNet: rp.ipnet, Valid: true}); err != nil {
		rp.logger.Warn().Err(err).Msg("failed to record unit placement")
	}
}
