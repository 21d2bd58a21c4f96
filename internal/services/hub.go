package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event is a state-change notification pushed to challenge participants
type Event struct {
	Type         string `json:"type"`
	ChallengeID  string `json:"challenge_id,omitempty"`
	SubmissionID string `json:"submission_id,omitempty"`
	InitiatorID  string `json:"initiator_id,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	Timestamp    int64  `json:"timestamp,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Event types sent over the hub
const (
	EventSubmissionAdded = "submission_added"
	EventVoteRecorded    = "vote_recorded"
	EventError           = "error"
)

// Hub fans challenge events out to connected participants over WebSockets.
// Session changes are observed by subscribing here instead of polling
// shared state.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*hubClient
	membership  *MembershipCoordinator
}

// hubClient serializes writes to one connection; gorilla/websocket allows a
// single concurrent writer
type hubClient struct {
	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewHub creates a new event hub
func NewHub(membership *MembershipCoordinator) *Hub {
	return &Hub{
		connections: make(map[string]*hubClient),
		membership:  membership,
	}
}

// Register registers a WebSocket connection for a user, replacing any
// existing one
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.conn.Close()
	}
	h.connections[userID] = &hubClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's WebSocket connection
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.connections[userID]; ok {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends an event to a specific user
func (h *Hub) SendToUser(userID string, event Event) error {
	h.mu.RLock()
	client, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	client.writeMu.Lock()
	err = client.conn.WriteMessage(websocket.TextMessage, data)
	client.writeMu.Unlock()
	if err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// IsOnline checks if a user has a live connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// BroadcastToChallenge sends an event to every connected participant of a
// challenge except the initiator. Offline participants are skipped.
func (h *Hub) BroadcastToChallenge(ctx context.Context, challengeID string, event Event) {
	challenge, err := h.membership.GetChallenge(ctx, challengeID)
	if err != nil {
		log.Error().Err(err).Str("challenge_id", challengeID).Msg("Failed to load challenge for broadcast")
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	for _, participantID := range challenge.Participants {
		if participantID == event.InitiatorID {
			continue
		}
		if !h.IsOnline(participantID) {
			continue
		}
		if err := h.SendToUser(participantID, event); err != nil {
			log.Error().
				Err(err).
				Str("user_id", participantID).
				Str("challenge_id", challengeID).
				Msg("Failed to send challenge event")
		}
	}
}
