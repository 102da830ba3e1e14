package ws

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-kumar02/Playworld/internal/app"
	"github.com/aman-kumar02/Playworld/internal/config"
	"github.com/aman-kumar02/Playworld/internal/core"
	"github.com/aman-kumar02/Playworld/internal/domain"
)

func domainCode(s string) domain.RoomCode {
	return domain.NormalizeRoomCode(s)
}

type mockSignal struct {
	mu      sync.Mutex
	frames  []core.Frame
	sendErr error
	closed  bool
}

func (m *mockSignal) TrySend(f core.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.frames = append(m.frames, f)
	return nil
}

func (m *mockSignal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// event is the union of every outbound payload shape; Scores stays raw
// because join refreshes nest tables per game while score updates do not.
type event struct {
	Type   string          `json:"type"`
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Error  string          `json:"error"`
	Game   string          `json:"game"`
	Scores json.RawMessage `json:"scores"`
}

func (m *mockSignal) events(t *testing.T) []event {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event, 0, len(m.frames))
	for _, f := range m.frames {
		var e event
		require.NoError(t, json.Unmarshal(f, &e))
		out = append(out, e)
	}
	return out
}

func (m *mockSignal) eventsOfType(t *testing.T, typ string) []event {
	t.Helper()
	var out []event
	for _, e := range m.events(t) {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockSignal) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = nil
}

func newTestController() *Controller {
	cfg := &config.Config{
		ReadLimit:      4096,
		PingPeriod:     time.Minute,
		WriteTimeout:   time.Second,
		RoomRateLimit:  100,
		RoomRateWindow: time.Minute,
	}
	return NewController(app.NewBroker(), cfg)
}

func bind(ctl *Controller, sid core.SessionID) *mockSignal {
	conn := &mockSignal{}
	ctl.Broker.Registry.Bind(sid, conn, nil)
	return conn
}

func send(ctl *Controller, sid core.SessionID, conn *mockSignal, msg string) {
	ctl.handleMessage(sid, conn, []byte(msg))
}

func createdCode(t *testing.T, conn *mockSignal) string {
	t.Helper()
	created := conn.eventsOfType(t, "roomCreated")
	require.Len(t, created, 1)
	return created[0].Code
}

func TestCreateRoomRepliesWithCode(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")

	send(ctl, "a", a, `{"type":"createRoom"}`)

	code := createdCode(t, a)
	assert.Len(t, code, 6)
	assert.Equal(t, strings.ToUpper(code), code)

	room, ok := ctl.Broker.Rooms.Get(domainCode(code))
	require.True(t, ok)
	assert.Equal(t, 1, room.PlayerCount())
}

func TestJoinRoomScenario(t *testing.T) {
	// Spec'd end to end: A creates, B joins with a lowercase code, B
	// submits a pong score, both see the Player2 entry.
	ctl := newTestController()
	a := bind(ctl, "a")
	b := bind(ctl, "b")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	a.reset()

	send(ctl, "b", b, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, strings.ToLower(code)))

	joined := b.eventsOfType(t, "joinedRoom")
	require.Len(t, joined, 1)
	assert.Equal(t, code, joined[0].Code, "join must answer with the normalized code")

	for _, conn := range []*mockSignal{a, b} {
		names := conn.eventsOfType(t, "playerJoined")
		require.Len(t, names, 1)
		assert.Equal(t, "Player2", names[0].Name)
		require.Len(t, conn.eventsOfType(t, "updateLeaderboard"), 1)
	}

	a.reset()
	b.reset()
	send(ctl, "b", b, fmt.Sprintf(`{"type":"updateScore","code":%q,"game":"pong","score":5}`, code))

	for _, conn := range []*mockSignal{a, b} {
		boards := conn.eventsOfType(t, "updateLeaderboard")
		require.Len(t, boards, 1)
		assert.Equal(t, "pong", boards[0].Game)

		var scores map[string]float64
		require.NoError(t, json.Unmarshal(boards[0].Scores, &scores))
		assert.Equal(t, map[string]float64{"Player2": 5}, scores)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	ctl := newTestController()
	c := bind(ctl, "c")

	send(ctl, "c", c, `{"type":"joinRoom","code":"ZZZZZZ"}`)

	errs := c.eventsOfType(t, "error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Room not found", errs[0].Error)

	assert.Empty(t, ctl.Broker.Rooms.List(), "failed join must not create room state")
}

func TestScoreBroadcastScopedToRoomAndGame(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")
	b := bind(ctl, "b")
	outsider := bind(ctl, "outsider")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	send(ctl, "b", b, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, code))
	send(ctl, "outsider", outsider, `{"type":"createRoom"}`)

	// Seed a second game's table; its scores must never ride along.
	send(ctl, "a", a, fmt.Sprintf(`{"type":"updateScore","code":%q,"game":"flappy","score":9}`, code))
	a.reset()
	b.reset()
	outsider.reset()

	send(ctl, "b", b, fmt.Sprintf(`{"type":"updateScore","code":%q,"game":"pong","score":5}`, code))

	for _, conn := range []*mockSignal{a, b} {
		boards := conn.eventsOfType(t, "updateLeaderboard")
		require.Len(t, boards, 1)
		assert.Equal(t, "pong", boards[0].Game)

		var scores map[string]float64
		require.NoError(t, json.Unmarshal(boards[0].Scores, &scores))
		assert.NotContains(t, scores, "Host", "flappy scores must not leak into the pong table")
	}

	assert.Empty(t, outsider.events(t), "no delivery outside the room")
}

func TestScoreFromNonMemberRejected(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")
	outsider := bind(ctl, "outsider")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	a.reset()

	send(ctl, "outsider", outsider, fmt.Sprintf(`{"type":"updateScore","code":%q,"game":"pong","score":5}`, code))

	require.Len(t, outsider.eventsOfType(t, "error"), 1)
	assert.Empty(t, a.events(t), "rejection stays with the sender")
}

func TestFailedJoinKeepsMembership(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")
	b := bind(ctl, "b")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	send(ctl, "b", b, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, code))
	a.reset()
	b.reset()

	send(ctl, "b", b, `{"type":"joinRoom","code":"ZZZZZZ"}`)

	errs := b.eventsOfType(t, "error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Room not found", errs[0].Error)

	cur, in := ctl.Broker.Registry.RoomOf("b")
	require.True(t, in, "a typo must not drop the sender from their room")
	assert.Equal(t, domainCode(code), cur)

	room, ok := ctl.Broker.Rooms.Get(domainCode(code))
	require.True(t, ok)
	assert.Equal(t, 2, room.PlayerCount())
	assert.Empty(t, a.events(t), "no playerLeft for a join that never happened")
}

func TestFailedJoinKeepsSoloHostRoom(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	a.reset()

	send(ctl, "a", a, `{"type":"joinRoom","code":"ZZZZZZ"}`)

	errs := a.eventsOfType(t, "error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Room not found", errs[0].Error)

	_, ok := ctl.Broker.Rooms.Get(domainCode(code))
	assert.True(t, ok, "the sender's own room must survive the failed join")
}

func TestSwitchingRoomsNotifiesOldRoom(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")
	b := bind(ctl, "b")
	mover := bind(ctl, "mover")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	first := createdCode(t, a)
	send(ctl, "mover", mover, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, first))
	send(ctl, "b", b, `{"type":"createRoom"}`)
	second := createdCode(t, b)
	a.reset()
	b.reset()
	mover.reset()

	send(ctl, "mover", mover, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, second))

	left := a.eventsOfType(t, "playerLeft")
	require.Len(t, left, 1)
	assert.Equal(t, "Player2", left[0].Name)

	require.Len(t, b.eventsOfType(t, "playerJoined"), 1)
	cur, _ := ctl.Broker.Registry.RoomOf("mover")
	assert.Equal(t, domainCode(second), cur)
}

func TestRejoinStaysSilent(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")
	b := bind(ctl, "b")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	send(ctl, "b", b, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, code))
	a.reset()
	b.reset()

	send(ctl, "b", b, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, code))

	require.Len(t, b.eventsOfType(t, "joinedRoom"), 1, "re-join still acks the sender")
	assert.Empty(t, a.events(t), "no duplicate playerJoined for the room")

	room, _ := ctl.Broker.Rooms.Get(domainCode(code))
	assert.Equal(t, 2, room.PlayerCount())
}

func TestDisconnectEvictsEmptyRoom(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)

	ctl.handleDisconnect("a")

	_, ok := ctl.Broker.Rooms.Get(domainCode(code))
	assert.False(t, ok)

	late := bind(ctl, "late")
	send(ctl, "late", late, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, code))
	errs := late.eventsOfType(t, "error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Room not found", errs[0].Error)
}

func TestDisconnectNotifiesRemainingMembers(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")
	b := bind(ctl, "b")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	send(ctl, "b", b, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, code))
	a.reset()

	ctl.handleDisconnect("b")

	left := a.eventsOfType(t, "playerLeft")
	require.Len(t, left, 1)
	assert.Equal(t, "Player2", left[0].Name)
	assert.Len(t, a.eventsOfType(t, "updateLeaderboard"), 1)
}

func TestCreateProfileNamesJoiner(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")
	b := bind(ctl, "b")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	a.reset()

	send(ctl, "b", b, `{"type":"createProfile","name":"alice"}`)
	require.Len(t, b.eventsOfType(t, "profileCreated"), 1)

	send(ctl, "b", b, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, code))

	names := a.eventsOfType(t, "playerJoined")
	require.Len(t, names, 1)
	assert.Equal(t, "alice", names[0].Name)
}

func TestMalformedPayloadsAnswerSenderOnly(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")
	b := bind(ctl, "b")

	send(ctl, "a", a, `{"type":"createRoom"}`)
	code := createdCode(t, a)
	send(ctl, "b", b, fmt.Sprintf(`{"type":"joinRoom","code":%q}`, code))
	a.reset()
	b.reset()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{{{`},
		{name: "missing game", raw: fmt.Sprintf(`{"type":"updateScore","code":%q,"score":1}`, code)},
		{name: "wrong score type", raw: fmt.Sprintf(`{"type":"updateScore","code":%q,"game":"pong","score":"five"}`, code)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.reset()
			a.reset()
			send(ctl, "b", b, tt.raw)
			assert.NotEmpty(t, b.eventsOfType(t, "error"))
			assert.Empty(t, a.events(t))
		})
	}
}

func TestPing(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")

	send(ctl, "a", a, `{"type":"ping"}`)

	require.Len(t, a.eventsOfType(t, "pong"), 1)
}

func TestUnknownTypeIgnored(t *testing.T) {
	ctl := newTestController()
	a := bind(ctl, "a")

	send(ctl, "a", a, `{"type":"selfDestruct"}`)

	assert.Empty(t, a.events(t))
}
