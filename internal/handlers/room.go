// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/clashkings/internal/auth"
	"github.com/jason-s-yu/clashkings/internal/protocol"
	"github.com/jason-s-yu/clashkings/internal/session"
	"github.com/sirupsen/logrus"
)

// HostTokenCookie carries the host token for browser clients.
const HostTokenCookie = "host_token"

// RoomServer is the HTTP side of the rooms hosted by this node.
type RoomServer struct {
	Rooms     *session.RoomStore
	PublicURL string // base for join links and the node address in the directory
	logger    *logrus.Logger
}

func NewRoomServer(rooms *session.RoomStore, publicURL string, logger *logrus.Logger) *RoomServer {
	return &RoomServer{Rooms: rooms, PublicURL: strings.TrimRight(publicURL, "/"), logger: logger}
}

type createRoomReq struct {
	Name string `json:"name"`
}

type createRoomRes struct {
	Code      string `json:"code"`
	Address   string `json:"address"`
	JoinURL   string `json:"joinUrl"`
	HostToken string `json:"hostToken"`
}

type roomRes struct {
	session.RoomInfo
	Node string `json:"node"`
}

// CreateRoomHandler opens a room and returns the host token that claims seat 0.
func (rs *RoomServer) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad room request payload")
		return
	}

	h, err := rs.Rooms.CreateRoom(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		rs.logger.Warnf("failed to create room: %v", err)
		writeError(w, http.StatusServiceUnavailable, session.MsgHostTimeout)
		return
	}

	token, err := auth.CreateHostToken(h.Address)
	if err != nil {
		rs.logger.Errorf("failed to sign host token: %v", err)
		rs.Rooms.DeleteRoom(h.Code)
		writeError(w, http.StatusInternalServerError, "could not create host token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     HostTokenCookie,
		Value:    token,
		Path:     "/room/ws/" + h.Address,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusCreated, createRoomRes{
		Code:      h.Code,
		Address:   h.Address,
		JoinURL:   protocol.JoinURL(rs.PublicURL, h.Code),
		HostToken: token,
	})
}

// RoomInfoHandler reports where a room lives. Rooms on other nodes are
// answered from the directory with only their node filled in.
func (rs *RoomServer) RoomInfoHandler(w http.ResponseWriter, r *http.Request) {
	rs.writeRoom(w, r, chi.URLParam(r, "code"))
}

// JoinHandler accepts anything a player might paste (link, code or address).
func (rs *RoomServer) JoinHandler(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("join")
	if input == "" {
		input = r.URL.Query().Get("code")
	}
	address, err := protocol.ParseJoinInput(input)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	code, ok := protocol.CodeFromAddress(address)
	if !ok {
		writeError(w, http.StatusNotFound, session.MsgRoomNotFound)
		return
	}
	rs.writeRoom(w, r, code)
}

func (rs *RoomServer) writeRoom(w http.ResponseWriter, r *http.Request, code string) {
	code = strings.ToUpper(code)
	if h, ok := rs.Rooms.GetRoom(code); ok {
		writeJSON(w, http.StatusOK, roomRes{RoomInfo: h.Info(), Node: rs.PublicURL})
		return
	}
	node, err := rs.Rooms.Resolve(r.Context(), code)
	if errors.Is(err, session.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, session.MsgRoomNotFound)
		return
	}
	if err != nil {
		rs.logger.Warnf("failed to resolve room %s: %v", code, err)
		writeError(w, http.StatusServiceUnavailable, "room directory unavailable")
		return
	}
	writeJSON(w, http.StatusOK, roomRes{
		RoomInfo: session.RoomInfo{Code: code, Address: protocol.Address(code)},
		Node:     node,
	})
}
