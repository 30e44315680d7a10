package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/clashkings/internal/auth"
	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/protocol"
	"github.com/jason-s-yu/clashkings/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) (*httptest.Server, *RoomServer) {
	t.Helper()
	return setupTestServerWithOrigins(t, nil)
}

func setupTestServerWithOrigins(t *testing.T, origins []string) (*httptest.Server, *RoomServer) {
	t.Helper()
	require.NoError(t, auth.Init(time.Hour))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := session.DefaultHostConfig()
	cfg.TurnDelay = time.Hour
	cfg.DrawDelay = time.Hour
	rooms := session.NewRoomStore(nil, "", cfg, logger)
	rs := NewRoomServer(rooms, "https://clash.example", logger)

	srv := httptest.NewServer(NewRouter(rs, logger, origins))
	t.Cleanup(func() {
		rooms.CloseAll()
		srv.Close()
	})
	return srv, rs
}

func createRoom(t *testing.T, srv *httptest.Server, name string) createRoomRes {
	t.Helper()
	resp, err := http.Post(srv.URL+"/room/create", "application/json", bytes.NewBufferString(`{"name":"`+name+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out createRoomRes
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func fastClient(name string, d session.Dialer) *session.Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := session.DefaultClientConfig()
	cfg.ReadyInterval = 20 * time.Millisecond
	cfg.Retry = session.RetryPolicy{FirstTimeout: time.Second, RetryTimeout: time.Second, MaxRetries: 1}
	return session.NewClient(name, d, cfg, logrus.NewEntry(logger))
}

func TestCreateRoom(t *testing.T) {
	srv, rs := setupTestServer(t)
	room := createRoom(t, srv, "Alice")

	assert.Len(t, room.Code, protocol.CodeLength)
	assert.Equal(t, protocol.Address(room.Code), room.Address)
	assert.Equal(t, "https://clash.example/?join="+room.Code, room.JoinURL)
	assert.NoError(t, auth.AuthenticateHostToken(room.HostToken, room.Address))

	h, ok := rs.Rooms.GetRoom(room.Code)
	require.True(t, ok)
	assert.Equal(t, "Alice", h.Snapshot().Players[0].Name)
}

func TestHeartbeatAndCORS(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/room/create", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://clash.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://clash.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRoomInfoAndJoin(t *testing.T) {
	srv, _ := setupTestServer(t)
	room := createRoom(t, srv, "Alice")

	for _, path := range []string{
		"/room/" + room.Code,
		"/room/" + strings.ToLower(room.Code),
		"/join?join=" + room.Code,
		"/join?join=" + room.Address,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		var info roomRes
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info), path)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, room.Code, info.Code, path)
		assert.Equal(t, 1, info.Players, path)
		assert.Equal(t, game.StatusSetup, info.Status, path)
	}

	resp, err := http.Get(srv.URL + "/room/ZZZZZ")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), session.MsgRoomNotFound)

	resp, err = http.Get(srv.URL + "/join")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoomWS_RejectsBadTokenAndSubprotocol(t *testing.T) {
	srv, _ := setupTestServer(t)
	room := createRoom(t, srv, "Alice")
	other := createRoom(t, srv, "Bob")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(srv)+"/room/ws/"+room.Address, &websocket.DialOptions{
		Subprotocols: []string{session.Subprotocol},
		HTTPHeader:   http.Header{"Authorization": {"Bearer " + other.HostToken}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c, _, err := websocket.Dial(ctx, wsURL(srv)+"/room/ws/"+room.Address, nil)
	require.NoError(t, err)
	defer c.CloseNow()
	_, _, err = c.Read(ctx)
	assert.Equal(t, websocket.StatusCode(BadSubprotocolError), websocket.CloseStatus(err))
}

func TestRoomWS_HonorsAllowedOrigins(t *testing.T) {
	srv, _ := setupTestServerWithOrigins(t, []string{"https://clash.example"})
	room := createRoom(t, srv, "Alice")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(srv)+"/room/ws/"+room.Address, &websocket.DialOptions{
		Subprotocols: []string{session.Subprotocol},
		HTTPHeader:   http.Header{"Origin": {"https://evil.example"}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c, _, err := websocket.Dial(ctx, wsURL(srv)+"/room/ws/"+room.Address, &websocket.DialOptions{
		Subprotocols: []string{session.Subprotocol},
		HTTPHeader:   http.Header{"Origin": {"https://clash.example"}},
	})
	require.NoError(t, err)
	c.Close(websocket.StatusNormalClosure, "")
}

func TestOriginHosts(t *testing.T) {
	assert.Equal(t, []string{"*"}, originHosts([]string{"https://*", "http://*"}))
	assert.Equal(t, []string{"clash.example", "*.clash.example:8080"},
		originHosts([]string{"https://clash.example/", " http://*.clash.example:8080", ""}))
	assert.Empty(t, originHosts(nil))
}

func TestRoomWS_UnknownRoomFailsFast(t *testing.T) {
	srv, _ := setupTestServer(t)
	c := fastClient("Bob", session.WSDialer{BaseURL: wsURL(srv)})

	err := c.Connect(context.Background(), protocol.Address("ZZZZZ"))
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrConnectFailed)
	assert.ErrorIs(t, err, session.ErrRoomNotFound)
	assert.Equal(t, session.StatusFailed, c.Status())
}

func TestRoomWS_HostAndJoinerPlay(t *testing.T) {
	srv, rs := setupTestServer(t)
	room := createRoom(t, srv, "Alice")

	host := fastClient("Alice", session.WSDialer{
		BaseURL: wsURL(srv),
		Header:  http.Header{"Authorization": {"Bearer " + room.HostToken}},
	})
	joiner := fastClient("Bob", session.WSDialer{BaseURL: wsURL(srv)})

	ctx := testContext(t)
	require.NoError(t, host.Connect(ctx, room.Address))
	t.Cleanup(host.Disconnect)
	require.Eventually(t, func() bool {
		_, seat := host.State()
		return seat == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, joiner.Connect(ctx, room.Address))
	t.Cleanup(joiner.Disconnect)
	require.Eventually(t, func() bool {
		s, seat := joiner.State()
		return seat == 1 && s != nil && len(s.Players) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// a joiner cannot deal
	require.NoError(t, joiner.Restart(ctx, protocol.RestartPayload{}))
	require.NoError(t, host.Restart(ctx, protocol.RestartPayload{Bots: 1, Rules: map[string]interface{}{"maxAces": 4}}))
	require.Eventually(t, func() bool {
		s, _ := joiner.State()
		return s.Status == game.StatusPlaying && len(s.Players) == 3
	}, 2*time.Second, 10*time.Millisecond)

	// out of turn: dropped
	require.NoError(t, joiner.Send(ctx, game.Draw(1)))
	require.NoError(t, host.Send(ctx, game.Draw(0)))
	require.Eventually(t, func() bool {
		s, _ := joiner.State()
		return s.Message == game.DrawMessage(0)
	}, 2*time.Second, 10*time.Millisecond)

	h, ok := rs.Rooms.GetRoom(room.Code)
	require.True(t, ok)
	authoritative := h.Snapshot()
	replica, _ := joiner.State()
	assert.Equal(t, authoritative.Version, replica.Version)
	assert.Equal(t, authoritative.Players[1].Hand, replica.Players[1].Hand)
	assert.Len(t, replica.Players[1].Hand, 7)
}
