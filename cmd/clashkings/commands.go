package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jason-s-yu/clashkings/internal/models"
)

type commandKind string

const (
	cmdPlay    commandKind = "play"
	cmdDraw    commandKind = "draw"
	cmdEnd     commandKind = "end"
	cmdSay     commandKind = "say"
	cmdStart   commandKind = "start"
	cmdNext    commandKind = "next"
	cmdAce     commandKind = "ace"
	cmdHelp    commandKind = "help"
	cmdQuit    commandKind = "quit"
	cmdRefresh commandKind = "refresh"
)

// command is one parsed line of player input.
type command struct {
	kind  commandKind
	index int
	side  models.PileSide
	text  string
	bots  int
	level string
}

var errEmptyCommand = errors.New("empty command")

const helpText = `commands:
  p <index> <l|r>   play the card at index on the left or right pile
  d                 draw a card
  e                 end your turn
  say <text>        chat
  start [bots] [difficulty]   deal a new game (host only online)
  n                 next (tutorial)
  ace               play the ace (tutorial)
  r                 redraw the table
  q                 quit`

// parseCommand reads a line such as "p 2 l", "draw" or "say gg".
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errEmptyCommand
	}

	switch strings.ToLower(fields[0]) {
	case "p", "play":
		if len(fields) != 3 {
			return command{}, fmt.Errorf("usage: p <index> <l|r>")
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil || idx < 0 {
			return command{}, fmt.Errorf("bad card index %q", fields[1])
		}
		side, err := parseSide(fields[2])
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdPlay, index: idx, side: side}, nil
	case "d", "draw":
		return command{kind: cmdDraw}, nil
	case "e", "end", "pass":
		return command{kind: cmdEnd}, nil
	case "say", "chat":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if text == "" {
			return command{}, fmt.Errorf("usage: say <text>")
		}
		return command{kind: cmdSay, text: text}, nil
	case "start", "new":
		c := command{kind: cmdStart}
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 {
				return command{}, fmt.Errorf("bad bot count %q", fields[1])
			}
			c.bots = n
		}
		if len(fields) > 2 {
			c.level = fields[2]
		}
		return c, nil
	case "n", "next", "finish":
		return command{kind: cmdNext}, nil
	case "a", "ace":
		return command{kind: cmdAce}, nil
	case "r", "refresh":
		return command{kind: cmdRefresh}, nil
	case "h", "help", "?":
		return command{kind: cmdHelp}, nil
	case "q", "quit", "exit":
		return command{kind: cmdQuit}, nil
	}
	return command{}, fmt.Errorf("unknown command %q (h for help)", fields[0])
}

func parseSide(s string) (models.PileSide, error) {
	switch strings.ToLower(s) {
	case "l", "left":
		return models.Left, nil
	case "r", "right":
		return models.Right, nil
	}
	return "", fmt.Errorf("bad pile %q, use l or r", s)
}
