package signaling

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BioHazard786/syncwatch/internal/buffer"
	"github.com/BioHazard786/syncwatch/internal/protocol"
	"github.com/BioHazard786/syncwatch/internal/room"
)

// maxRoomIDAttempts bounds regeneration when a fresh room code collides.
const maxRoomIDAttempts = 32

// Options configures a Hub. Zero values fall back to sensible defaults.
type Options struct {
	// Store holds the chunk buffers. Defaults to an in-memory store.
	Store buffer.Store

	Logger *slog.Logger

	// SendQueue is the per-connection outbound queue length.
	SendQueue int

	// RoomTTL is how long a vacant room is kept before Run deletes it.
	// Zero disables sweeping.
	RoomTTL time.Duration

	// SweepInterval is how often Run looks for vacant rooms.
	SweepInterval time.Duration

	// StoreTimeout bounds every buffer store call.
	StoreTimeout time.Duration

	// HostOnlyControl rejects sync, play-pause, seek and push-chunk from
	// anyone but the room's host.
	HostOnlyControl bool

	// NewRoomID generates room codes. Defaults to NewRoomID.
	NewRoomID func() (string, error)
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	room.Stats
	Connections int `json:"connections"`
	Bindings    int `json:"bindings"`
}

// Hub is the central brain of the relay.
// It owns the room directory, the connection registry, the broadcast groups
// and the chunk buffer, and routes every inbound event.
type Hub struct {
	rooms    *room.Directory
	registry *room.Registry
	store    buffer.Store
	log      *slog.Logger
	opts     Options

	connsMu sync.RWMutex
	conns   map[string]*Conn

	// groups maps a room id to the connections receiving its broadcasts.
	groupsMu    sync.RWMutex
	groups      map[string]map[*Conn]struct{}
	memberships map[*Conn]map[string]struct{}
}

// NewHub creates a Hub.
func NewHub(opts Options) *Hub {
	if opts.Store == nil {
		opts.Store = buffer.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = 256
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 2 * time.Second
	}
	if opts.NewRoomID == nil {
		opts.NewRoomID = NewRoomID
	}

	return &Hub{
		rooms:       room.NewDirectory(),
		registry:    room.NewRegistry(),
		store:       opts.Store,
		log:         opts.Logger,
		opts:        opts,
		conns:       make(map[string]*Conn),
		groups:      make(map[string]map[*Conn]struct{}),
		memberships: make(map[*Conn]map[string]struct{}),
	}
}

// NewRoomID returns six upper-case hex characters from three random bytes.
func NewRoomID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate room id: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// Rooms exposes the room directory.
func (h *Hub) Rooms() *room.Directory {
	return h.rooms
}

// Registry exposes the connection registry.
func (h *Hub) Registry() *room.Registry {
	return h.registry
}

// Register makes a connection addressable by its id.
func (h *Hub) Register(c *Conn) {
	h.connsMu.Lock()
	h.conns[c.ID] = c
	h.connsMu.Unlock()

	c.log.Info("client registered")
}

// Unregister runs disconnect handling: the identity bound to the connection
// leaves every room, the remaining members are told, and the connection is
// closed.
func (h *Hub) Unregister(c *Conn) {
	h.connsMu.Lock()
	_, ok := h.conns[c.ID]
	delete(h.conns, c.ID)
	h.connsMu.Unlock()
	if !ok {
		return
	}

	h.leaveAllGroups(c)

	if participantID, found := h.registry.FindIdentityByConnection(c.ID); found {
		h.registry.Unbind(participantID)
		h.removeParticipant(c, participantID)
	}

	c.close()
	c.log.Info("client unregistered")
}

// bind points the identity at c. An identity c spoke for until now leaves
// its rooms, as if it had disconnected.
func (h *Hub) bind(c *Conn, participantID string) {
	displaced := h.registry.Bind(participantID, c.ID)
	if displaced == "" {
		return
	}
	c.log.Info("connection switched identity", "from", displaced, "to", participantID)
	for _, roomID := range h.removeParticipant(c, displaced) {
		h.leaveGroup(roomID, c)
	}
}

// removeParticipant drops the identity from every room and tells the other
// members. It returns the affected rooms.
func (h *Hub) removeParticipant(c *Conn, participantID string) []string {
	affected := h.rooms.RemoveParticipant(participantID)
	for _, roomID := range affected {
		c.log.Info("participant left", "room", roomID, "participant", participantID)
		h.broadcast(roomID, c, protocol.MustMessage(protocol.EventParticipantLeft, protocol.ParticipantLeft{
			RoomID:        roomID,
			ParticipantID: participantID,
		}))
	}
	return affected
}

// Run sweeps rooms that stayed vacant longer than RoomTTL until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.opts.RoomTTL <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Hub) sweep(ctx context.Context) {
	for _, roomID := range h.rooms.Sweep(h.opts.RoomTTL) {
		h.groupsMu.Lock()
		delete(h.groups, roomID)
		h.groupsMu.Unlock()

		h.clearBuffer(ctx, roomID)
		h.log.Info("room deleted", "room", roomID)
	}
}

// Stats reports room and connection counters.
func (h *Hub) Stats() Stats {
	h.connsMu.RLock()
	conns := len(h.conns)
	h.connsMu.RUnlock()

	return Stats{
		Stats:       h.rooms.Stats(),
		Connections: conns,
		Bindings:    h.registry.Len(),
	}
}

func (h *Hub) conn(connID string) *Conn {
	h.connsMu.RLock()
	defer h.connsMu.RUnlock()
	return h.conns[connID]
}

func (h *Hub) joinGroup(roomID string, c *Conn) {
	h.groupsMu.Lock()
	defer h.groupsMu.Unlock()

	members, ok := h.groups[roomID]
	if !ok {
		members = make(map[*Conn]struct{})
		h.groups[roomID] = members
	}
	members[c] = struct{}{}

	rooms, ok := h.memberships[c]
	if !ok {
		rooms = make(map[string]struct{})
		h.memberships[c] = rooms
	}
	rooms[roomID] = struct{}{}
}

func (h *Hub) leaveGroup(roomID string, c *Conn) {
	h.groupsMu.Lock()
	defer h.groupsMu.Unlock()

	if members, ok := h.groups[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, roomID)
		}
	}
	if rooms, ok := h.memberships[c]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(h.memberships, c)
		}
	}
}

func (h *Hub) leaveAllGroups(c *Conn) {
	h.groupsMu.Lock()
	defer h.groupsMu.Unlock()

	for roomID := range h.memberships[c] {
		if members, ok := h.groups[roomID]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.groups, roomID)
			}
		}
	}
	delete(h.memberships, c)
}

// broadcast sends msg to every connection in the room's group except the sender.
func (h *Hub) broadcast(roomID string, except *Conn, msg *protocol.Message) int {
	h.groupsMu.RLock()
	targets := make([]*Conn, 0, len(h.groups[roomID]))
	for c := range h.groups[roomID] {
		if c != except {
			targets = append(targets, c)
		}
	}
	h.groupsMu.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.Send(msg) {
			sent++
		}
	}
	return sent
}

// unicast resolves a participant to its connection and sends msg.
func (h *Hub) unicast(participantID string, msg *protocol.Message) bool {
	connID, ok := h.registry.Resolve(participantID)
	if !ok {
		return false
	}
	target := h.conn(connID)
	if target == nil {
		return false
	}
	return target.Send(msg)
}

func (h *Hub) readBuffer(ctx context.Context, roomID string) [][]byte {
	ctx, cancel := context.WithTimeout(ctx, h.opts.StoreTimeout)
	defer cancel()

	chunks, err := h.store.Read(ctx, roomID)
	if err != nil {
		h.log.Warn("buffer read failed", "room", roomID, "err", err)
		return [][]byte{}
	}
	if chunks == nil {
		return [][]byte{}
	}
	return chunks
}

func (h *Hub) clearBuffer(ctx context.Context, roomID string) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.StoreTimeout)
	defer cancel()

	if err := h.store.Clear(ctx, roomID); err != nil {
		h.log.Warn("buffer clear failed", "room", roomID, "err", err)
	}
}
