package room

import (
	"time"

	"github.com/lunablock/lunablock-server/internal/protocol"
)

// Status is the lifecycle state of a room.
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
)

var statusNames = map[Status]string{
	StatusWaiting: "waiting",
	StatusPlaying: "playing",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Member is a user seated in a room.
type Member struct {
	UserID string
	Name   string
}

// PlayerState is the last reported board of a member. Dead stays set until
// the room restarts even if later updates say otherwise.
type PlayerState struct {
	Snapshot protocol.GameState
	Dead     bool
}

// Room is a lobby and, once started, a match. All fields are guarded by the
// owning Manager's mutex.
type Room struct {
	ID           string
	Name         string
	IsPrivate    bool
	passwordHash []byte
	MaxPlayers   int
	Status       Status
	HostID       string
	CreatedAt    time.Time

	members   []Member
	states    map[string]*PlayerState
	targets   TargetMap
	restarted map[string]bool
	loaded    map[string]bool
	finished  bool

	retarget    Task
	retargetGen uint64
}

func newRoom(id, name string, maxPlayers int, createdAt time.Time) *Room {
	return &Room{
		ID:         id,
		Name:       name,
		MaxPlayers: maxPlayers,
		Status:     StatusWaiting,
		CreatedAt:  createdAt,
		states:     make(map[string]*PlayerState),
		restarted:  make(map[string]bool),
		loaded:     make(map[string]bool),
	}
}

func (r *Room) memberIndex(userID string) int {
	for i, m := range r.members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

func (r *Room) isMember(userID string) bool {
	return r.memberIndex(userID) >= 0
}

func (r *Room) memberName(userID string) string {
	if i := r.memberIndex(userID); i >= 0 {
		return r.members[i].Name
	}
	return ""
}

func (r *Room) memberIDs() []string {
	ids := make([]string, len(r.members))
	for i, m := range r.members {
		ids[i] = m.UserID
	}
	return ids
}

// upsertMember seats a user, or refreshes the nickname of an existing member
// without changing seat order.
func (r *Room) upsertMember(userID, name string) {
	if i := r.memberIndex(userID); i >= 0 {
		r.members[i].Name = name
		return
	}
	r.members = append(r.members, Member{UserID: userID, Name: name})
}

// removeMember drops a user and every per-player record. It reports whether
// the user was a member.
func (r *Room) removeMember(userID string) bool {
	i := r.memberIndex(userID)
	if i < 0 {
		return false
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	delete(r.states, userID)
	delete(r.restarted, userID)
	delete(r.loaded, userID)
	delete(r.targets, userID)

	if r.HostID == userID {
		r.HostID = ""
		if len(r.members) > 0 {
			r.HostID = r.members[0].UserID
		}
	}
	return true
}

func (r *Room) state(userID string) *PlayerState {
	ps, ok := r.states[userID]
	if !ok {
		ps = &PlayerState{}
		r.states[userID] = ps
	}
	return ps
}

func (r *Room) isDead(userID string) bool {
	ps, ok := r.states[userID]
	return ok && ps.Dead
}

// survivors lists members that have not topped out, in seat order.
func (r *Room) survivors() []Member {
	alive := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		if !r.isDead(m.UserID) {
			alive = append(alive, m)
		}
	}
	return alive
}

// resetMatch clears everything that belongs to a single match.
func (r *Room) resetMatch() {
	r.targets = nil
	r.finished = false
	r.restarted = make(map[string]bool)
	r.loaded = make(map[string]bool)
	for _, ps := range r.states {
		ps.Dead = false
		ps.Snapshot.IsGameOver = false
	}
}

func (r *Room) stopRetarget() {
	if r.retarget != nil {
		r.retarget.Stop()
		r.retarget = nil
	}
	r.retargetGen++
}

func (r *Room) players() []protocol.PlayerView {
	players := make([]protocol.PlayerView, len(r.members))
	for i, m := range r.members {
		players[i] = protocol.PlayerView{UserID: m.UserID, Name: m.Name}
	}
	return players
}

func (r *Room) view() protocol.RoomView {
	return protocol.RoomView{
		ID:         r.ID,
		Name:       r.Name,
		IsPrivate:  r.IsPrivate,
		MaxPlayers: r.MaxPlayers,
		Status:     r.Status.String(),
		HostID:     r.HostID,
		Players:    r.players(),
	}
}

func (r *Room) summary() protocol.RoomSummary {
	return protocol.RoomSummary{
		ID:               r.ID,
		Name:             r.Name,
		IsPrivate:        r.IsPrivate,
		MaxPlayers:       r.MaxPlayers,
		Status:           r.Status.String(),
		ParticipantCount: len(r.members),
		HostID:           r.HostID,
	}
}
