package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/engine"
	"github.com/inamate/timeline/backend-go/internal/typeid"
)

// ErrUnknownProject is returned for operations on a project with no room.
var ErrUnknownProject = errors.New("unknown project")

// EngineFactory builds the engine for a room opened for projectID.
type EngineFactory func(projectID string) *engine.Engine

type Room struct {
	projectID string
	state     *TimelineState
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager

	// order keeps broadcasts in server sequence order.
	order sync.Mutex
}

func NewRoom(projectID string, eng *engine.Engine) *Room {
	return &Room{
		projectID: projectID,
		state:     NewTimelineState(eng),
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
	}
}

func (r *Room) State() *TimelineState { return r.state }

// Hub owns every room. Rooms outlive their clients so a project keeps its
// timeline while the server runs.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // projectID -> room
	newEngine  EngineFactory
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub(newEngine EngineFactory) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		newEngine:  newEngine,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes joins and leaves until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			h.disconnectAll()
			return
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Open returns the room for projectID, creating it on first use.
func (h *Hub) Open(projectID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.openLocked(projectID)
}

func (h *Hub) openLocked(projectID string) *Room {
	room, ok := h.rooms[projectID]
	if !ok {
		room = NewRoom(projectID, h.newEngine(projectID))
		h.rooms[projectID] = room
		slog.Info("room opened", "project", projectID)
	}
	return room
}

func (h *Hub) Lookup(projectID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[projectID]
	return room, ok
}

// Close drops the room for projectID and disconnects its clients.
func (h *Hub) Close(projectID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[projectID]
	if !ok {
		return false
	}
	for _, c := range room.clients {
		c.closeSend()
	}
	delete(h.rooms, projectID)
	slog.Info("room closed", "project", projectID)
	return true
}

// ProjectIDs lists open rooms in id order.
func (h *Hub) ProjectIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// ClientCount returns the number of connected clients in projectID.
func (h *Hub) ClientCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[projectID]; ok {
		return len(room.clients)
	}
	return 0
}

// Submit applies op on behalf of userID outside of a websocket session and
// broadcasts it to every client in the room.
func (h *Hub) Submit(projectID, userID string, op command.Operation) (int64, command.Result, error) {
	room, ok := h.Lookup(projectID)
	if !ok {
		return 0, command.Result{}, fmt.Errorf("project %s: %w", projectID, ErrUnknownProject)
	}
	return h.apply(room, userID, "", op)
}

// apply stamps, applies and fans out op. The submitting client, if any, is
// left out of the broadcast; it gets an ack instead.
func (h *Hub) apply(room *Room, userID, excludeClientID string, op command.Operation) (int64, command.Result, error) {
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	if op.Timestamp == 0 {
		op.Timestamp = time.Now().UnixMilli()
	}

	room.order.Lock()
	defer room.order.Unlock()

	entry, err := room.state.ApplyOperation(userID, op)
	if err != nil {
		return 0, command.Result{}, err
	}

	msg := newMessage(TypeOpBroadcast, entry)
	msg.Seq = entry.ServerSeq
	msg.UserID = userID
	h.broadcastToRoom(room.projectID, msg, excludeClientID)
	return entry.ServerSeq, entry.Result, nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room := h.openLocked(client.ProjectID)
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
		ProjectID:   client.ProjectID,
	}))
	client.Send(h.syncMessage(room))
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	h.broadcastToRoom(client.ProjectID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.UserID)
	h.mu.Unlock()

	leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	h.broadcastToRoom(client.ProjectID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for id, c := range room.clients {
			c.closeSend()
			delete(room.clients, id)
		}
	}
	slog.Info("hub stopped", "rooms", len(h.rooms))
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeStateRequest:
		h.handleStateRequest(sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.Send(newMessage(TypeError, ErrorPayload{Message: "unknown message type: " + msg.Type}))
	}
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var p OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{
			Code:   command.CodeInvalid,
			Reason: err.Error(),
		}))
		return
	}

	op := p.Operation
	room, ok := h.Lookup(sender.ProjectID)
	if !ok {
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{
			OperationID: op.ID,
			Code:        command.CodeNotFound,
			Reason:      "project closed",
		}))
		return
	}

	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	seq, res, err := h.apply(room, sender.UserID, sender.ClientID, op)
	if err != nil {
		slog.Warn("operation rejected", "op", op.Type, "id", op.ID, "user", sender.UserID, "error", err)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{
			OperationID: op.ID,
			Code:        command.Code(err),
			Reason:      err.Error(),
		}))
		return
	}

	ack := newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: time.Now().UnixMilli(),
		Result:          res,
	})
	ack.Seq = seq
	sender.Send(ack)
}

// handleStateRequest answers a resync. Holding the room's order lock keeps
// the reply ahead of any broadcast with a later sequence number.
func (h *Hub) handleStateRequest(sender *Client, msg *Message) {
	var p StateRequestPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("invalid state request", "error", err, "user", sender.UserID)
		}
	}

	room, ok := h.Lookup(sender.ProjectID)
	if !ok {
		sender.Send(newMessage(TypeError, ErrorPayload{Message: "project closed"}))
		return
	}

	room.order.Lock()
	defer room.order.Unlock()

	if p.SinceSeq != nil {
		if ops, seq, ok := room.state.OpsSince(*p.SinceSeq); ok {
			out := newMessage(TypeStateOps, StateOpsPayload{Operations: ops, ServerSeq: seq})
			out.Seq = seq
			sender.Send(out)
			return
		}
	}
	sender.Send(h.syncMessage(room))
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName

	room, ok := h.Lookup(sender.ProjectID)
	if !ok {
		return
	}
	room.presence.Update(sender.UserID, &presence)

	out := newMessage(TypePresenceUpdate, presence)
	out.UserID = sender.UserID
	h.broadcastToRoom(sender.ProjectID, out, sender.ClientID)
}

func (h *Hub) syncMessage(room *Room) *Message {
	st, seq := room.state.Snapshot()
	msg := newMessage(TypeStateSync, StateSyncPayload{State: st, ServerSeq: seq})
	msg.Seq = seq
	return msg
}

func (h *Hub) broadcastToRoom(projectID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[projectID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
