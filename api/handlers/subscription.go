package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/logging"
	"github.com/linesmerrill/legal-case-api/models"
)

// Events pushed to case subscribers
const (
	EventCaseUpdated    = "case_updated"
	EventMessageCreated = "message_created"
	EventDocumentAdded  = "document_added"
)

const writeWait = 10 * time.Second

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type subscriber struct {
	conn      *websocket.Conn
	principal casework.Principal

	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

func (s *subscriber) send(event string, data interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(map[string]interface{}{
		"event": event,
		"data":  data,
	})
}

// Hub keeps the websocket connections watching each case
type Hub struct {
	rooms map[string]map[*subscriber]struct{}
	mutex sync.Mutex
}

// NewHub returns an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*subscriber]struct{})}
}

func (h *Hub) join(caseID string, s *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	room, ok := h.rooms[caseID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[caseID] = room
	}
	room[s] = struct{}{}
}

func (h *Hub) leave(caseID string, s *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	room := h.rooms[caseID]
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, caseID)
	}
}

// Subscribers returns how many connections watch caseID
func (h *Hub) Subscribers(caseID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.rooms[caseID])
}

// publish sends event to the subscribers of caseID that allow accepts. A nil allow
// reaches everyone in the room.
func (h *Hub) publish(caseID, event string, data interface{}, allow func(casework.Principal) bool) {
	if h == nil {
		return
	}
	h.mutex.Lock()
	targets := make([]*subscriber, 0, len(h.rooms[caseID]))
	for s := range h.rooms[caseID] {
		if allow == nil || allow(s.principal) {
			targets = append(targets, s)
		}
	}
	h.mutex.Unlock()

	for _, s := range targets {
		if err := s.send(event, data); err != nil {
			logging.New("hub").Warnw("failed to push case event",
				"caseId", caseID,
				"event", event,
				"userId", s.principal.ID,
				"error", err)
			h.leave(caseID, s)
			s.conn.Close()
		}
	}
}

// CaseUpdated pushes the new state of c to everyone watching it
func (h *Hub) CaseUpdated(c *models.Case) {
	h.publish(c.ID.Hex(), EventCaseUpdated, c, nil)
}

// MessageCreated pushes m to the connections that may read it. Direct messages only
// reach their sender and recipient.
func (h *Hub) MessageCreated(m *models.Message) {
	h.publish(m.CaseID, EventMessageCreated, m, func(p casework.Principal) bool {
		return m.Broadcast() || p.ID == m.SenderID || p.ID == m.RecipientID
	})
}

// DocumentAdded pushes a newly registered document
func (h *Hub) DocumentAdded(d *models.CaseDocument) {
	h.publish(d.CaseID, EventDocumentAdded, d, nil)
}

// Subscription exported for testing purposes
type Subscription struct {
	Svc    *casework.Service
	Tokens *api.TokenIssuer
	Hub    *Hub
}

// CaseEventsHandler upgrades to a websocket that receives the live events of one case.
// Browsers cannot set headers on the handshake so the token comes in the query string.
func (s Subscription) CaseEventsHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	p, err := s.Tokens.Parse(r.URL.Query().Get("token"))
	if err != nil {
		config.ErrorStatus("invalid token", http.StatusUnauthorized, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	_, _, err = s.Svc.GetCase(ctx, p, caseID)
	cancel()
	if err != nil {
		writeCaseworkError("failed to subscribe to case", w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.New("hub").Warnw("websocket upgrade error", "caseId", caseID, "error", err)
		return
	}

	sub := &subscriber{conn: conn, principal: p}
	s.Hub.join(caseID, sub)
	logging.New("hub").Infow("subscribed to case events", "caseId", caseID, "userId", p.ID)

	defer func() {
		s.Hub.leave(caseID, sub)
		conn.Close()
		logging.New("hub").Infow("unsubscribed from case events", "caseId", caseID, "userId", p.ID)
	}()

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
