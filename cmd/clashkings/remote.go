package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jason-s-yu/clashkings/internal/bot"
	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/protocol"
	"github.com/jason-s-yu/clashkings/internal/session"
	"github.com/sirupsen/logrus"
)

// createdRoom mirrors the POST /room/create response.
type createdRoom struct {
	Code      string `json:"code"`
	Address   string `json:"address"`
	JoinURL   string `json:"joinUrl"`
	HostToken string `json:"hostToken"`
}

func (a *app) runHost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("host", flag.ContinueOnError)
	name := fs.String("name", "Host", "your display name")
	server := fs.String("server", a.cfg.PublicURL, "room server base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	room, err := createRoom(ctx, *server, *name)
	if err != nil {
		return err
	}
	a.out.printf("Room %s created. Share: %s\n", room.Code, room.JoinURL)
	a.out.printf("type \"start [bots] [difficulty]\" when everyone is in\n")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+room.HostToken)
	return a.playRemote(ctx, *server, header, *name, room.Address)
}

func (a *app) runJoin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("join", flag.ContinueOnError)
	name := fs.String("name", "", "your display name")
	server := fs.String("server", a.cfg.PublicURL, "room server base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: clashkings join [flags] <code or link>")
	}

	address, err := protocol.ParseJoinInput(fs.Arg(0))
	if err != nil {
		return err
	}
	return a.playRemote(ctx, *server, nil, *name, address)
}

func createRoom(ctx context.Context, server, name string) (*createdRoom, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/room/create", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", session.MsgHostTimeout, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("room server answered %s", resp.Status)
	}
	var room createdRoom
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("bad create response: %w", err)
	}
	return &room, nil
}

// wsBase turns an http(s) base URL into the matching ws(s) one.
func wsBase(server string) string {
	switch {
	case strings.HasPrefix(server, "https://"):
		return "wss://" + strings.TrimPrefix(server, "https://")
	case strings.HasPrefix(server, "http://"):
		return "ws://" + strings.TrimPrefix(server, "http://")
	}
	return server
}

// playRemote connects a replica client to address and drives it from stdin.
func (a *app) playRemote(ctx context.Context, server string, header http.Header, name, address string) error {
	c := session.NewClient(name, session.WSDialer{BaseURL: wsBase(server), Header: header},
		a.cfg.ClientConfig(), logrus.NewEntry(a.logger).WithField("room", address))
	c.OnState = func(s *game.GameState, seat int) { a.out.render(s, seat, false) }
	c.OnNotice = a.out.notice
	c.OnStatus = func(s session.ConnStatus) { a.logger.Infof("connection %s", s) }

	a.out.printf("Connecting to %s...\n", address)
	if err := c.Connect(ctx, address); err != nil {
		return err
	}
	defer c.Disconnect()

	input := lines(ctx, a.in)
	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return errors.New(session.MsgConnectionLost)
		case line, ok = <-input:
			if !ok {
				return nil
			}
		}

		cmd, err := parseCommand(line)
		if errors.Is(err, errEmptyCommand) {
			continue
		}
		if err != nil {
			a.out.notice(err.Error())
			continue
		}

		_, seat := c.State()
		switch cmd.kind {
		case cmdQuit:
			return nil
		case cmdHelp:
			a.out.printf("%s\n", helpText)
			continue
		case cmdRefresh:
			s, seat := c.State()
			a.out.render(s, seat, true)
			continue
		case cmdStart:
			opts := protocol.RestartPayload{Bots: cmd.bots}
			if cmd.level != "" {
				level, err := bot.ParseDifficulty(cmd.level)
				if err != nil {
					a.out.notice(err.Error())
					continue
				}
				opts.Difficulty = string(level)
			}
			err = c.Restart(ctx, opts)
		case cmdPlay:
			err = c.Send(ctx, game.Play(seat, cmd.index, cmd.side))
		case cmdDraw:
			err = c.Send(ctx, game.Draw(seat))
		case cmdEnd:
			err = c.Send(ctx, game.EndTurn(seat))
		case cmdSay:
			err = c.Say(ctx, cmd.text)
		default:
			a.out.notice("Not available online.")
			continue
		}
		if err != nil {
			a.out.notice(err.Error())
		}
	}
}
