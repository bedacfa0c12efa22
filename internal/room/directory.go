package room

import (
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrRoomNotFound is returned when a room id is not known to the directory.
var ErrRoomNotFound = errors.New("room not found")

// Room is a snapshot of one watch session.
type Room struct {
	// ID is the six character room code.
	ID string

	// Participants is ordered by join order. The first entry is the host.
	Participants []string

	// VideoName is the optional title announced by the creator.
	VideoName string

	// PlaybackTime is the last position reported by a sync event, in seconds.
	PlaybackTime float64

	// HasPlaybackTime is false until the first sync.
	HasPlaybackTime bool

	CreatedAt time.Time

	// VacantSince is set when the last participant leaves.
	VacantSince time.Time
}

// Host returns the first participant, if any.
func (r *Room) Host() (string, bool) {
	if len(r.Participants) == 0 {
		return "", false
	}
	return r.Participants[0], true
}

// Vacant reports whether every participant has left.
func (r *Room) Vacant() bool {
	return len(r.Participants) == 0
}

func (r *Room) clone() Room {
	c := *r
	c.Participants = slices.Clone(r.Participants)
	return c
}

// JoinResult describes what a Join did.
type JoinResult struct {
	// Participants is the list after the join.
	Participants []string

	// Joined is false when the participant was already present.
	Joined bool

	// Reopened is true when the room was vacant and started a new generation.
	// The caller must discard any state tied to the previous occupancy.
	Reopened bool
}

// Stats summarises directory occupancy.
type Stats struct {
	Rooms        int `json:"rooms"`
	VacantRooms  int `json:"vacantRooms"`
	Participants int `json:"participants"`
}

// Directory maps room ids to ordered participant lists.
// It is safe for concurrent use.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	// index maps a participant to the rooms listing it, so removal on
	// disconnect does not scan every room.
	index map[string]map[string]struct{}

	now func() time.Time
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		index: make(map[string]map[string]struct{}),
		now:   time.Now,
	}
}

// Create inserts a room with the creator as its only participant and reports
// whether it did. An existing room, vacant or not, is left untouched and its
// participant list is returned.
func (d *Directory) Create(roomID, creatorID, videoName string) ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.rooms[roomID]; ok {
		return slices.Clone(r.Participants), false
	}
	d.insertLocked(roomID, creatorID, videoName)
	return []string{creatorID}, true
}

func (d *Directory) insertLocked(roomID, creatorID, videoName string) {
	d.rooms[roomID] = &Room{
		ID:           roomID,
		Participants: []string{creatorID},
		VideoName:    videoName,
		CreatedAt:    d.now(),
	}
	d.indexLocked(creatorID, roomID)
}

// Join appends the participant to an existing room.
// Joining twice is a no-op. Joining a vacant room reopens it: the previous
// playback position and video name are dropped and the joiner becomes the host.
func (d *Directory) Join(roomID, participantID string) (JoinResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return JoinResult{}, ErrRoomNotFound
	}

	if slices.Contains(r.Participants, participantID) {
		return JoinResult{Participants: slices.Clone(r.Participants)}, nil
	}

	res := JoinResult{Joined: true}
	if r.Vacant() {
		r.PlaybackTime = 0
		r.HasPlaybackTime = false
		r.VideoName = ""
		r.VacantSince = time.Time{}
		r.CreatedAt = d.now()
		res.Reopened = true
	}

	r.Participants = append(r.Participants, participantID)
	d.indexLocked(participantID, roomID)

	res.Participants = slices.Clone(r.Participants)
	return res, nil
}

func (d *Directory) indexLocked(participantID, roomID string) {
	rooms, ok := d.index[participantID]
	if !ok {
		rooms = make(map[string]struct{})
		d.index[participantID] = rooms
	}
	rooms[roomID] = struct{}{}
}

// Participants returns the ordered participant list, empty if the room is unknown.
func (d *Directory) Participants(roomID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return []string{}
	}
	return slices.Clone(r.Participants)
}

// Host returns the first participant of the room.
func (d *Directory) Host(roomID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return "", false
	}
	return r.Host()
}

// Get returns a copy of the room.
func (d *Directory) Get(roomID string) (Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return Room{}, false
	}
	return r.clone(), true
}

// Exists reports whether the id is taken, vacant rooms included.
func (d *Directory) Exists(roomID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[roomID]
	return ok
}

// RemoveParticipant removes the identity from every room listing it and
// returns the ids of those rooms. Rooms are never deleted here.
func (d *Directory) RemoveParticipant(participantID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	rooms := d.index[participantID]
	delete(d.index, participantID)

	affected := make([]string, 0, len(rooms))
	for roomID := range rooms {
		r, ok := d.rooms[roomID]
		if !ok {
			continue
		}
		idx := slices.Index(r.Participants, participantID)
		if idx == -1 {
			continue
		}
		r.Participants = slices.Delete(r.Participants, idx, idx+1)
		if r.Vacant() {
			r.VacantSince = d.now()
		}
		affected = append(affected, roomID)
	}
	slices.Sort(affected)
	return affected
}

// SetPlaybackTime records the latest known position. It returns false for unknown rooms.
func (d *Directory) SetPlaybackTime(roomID string, seconds float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	r.PlaybackTime = seconds
	r.HasPlaybackTime = true
	return true
}

// PlaybackTime returns the last synced position of the room.
func (d *Directory) PlaybackTime(roomID string) (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[roomID]
	if !ok || !r.HasPlaybackTime {
		return 0, false
	}
	return r.PlaybackTime, true
}

// Sweep deletes rooms that have been vacant for at least maxVacancy and
// returns their ids.
func (d *Directory) Sweep(maxVacancy time.Duration) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	var removed []string
	for id, r := range d.rooms {
		if !r.Vacant() || r.VacantSince.IsZero() {
			continue
		}
		if now.Sub(r.VacantSince) >= maxVacancy {
			delete(d.rooms, id)
			removed = append(removed, id)
		}
	}
	slices.Sort(removed)
	return removed
}

// Stats returns occupancy counters.
func (d *Directory) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s Stats
	s.Rooms = len(d.rooms)
	for _, r := range d.rooms {
		if r.Vacant() {
			s.VacantRooms++
		}
		s.Participants += len(r.Participants)
	}
	return s
}
