// internal/protocol/roomcode.go
package protocol

import (
	"errors"
	"math/rand"
	"net/url"
	"regexp"
	"strings"
)

const (
	// CodeAlphabet leaves out I, O, 0 and 1.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 5
	// Namespace prefixes every room code to form its transport address.
	Namespace = "clash-kings-v2-"
	// maxBareCode is the longest input treated as a bare code.
	maxBareCode = 8
)

var ErrEmptyJoinInput = errors.New("please enter a valid game code")

var joinParam = regexp.MustCompile(`join=([^&]+)`)

// GenerateCode draws a fresh room code.
func GenerateCode(r *rand.Rand) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(CodeAlphabet[r.Intn(len(CodeAlphabet))])
	}
	return b.String()
}

// Address maps a room code to its transport address.
func Address(code string) string {
	return Namespace + strings.ToUpper(code)
}

// CodeFromAddress strips the namespace. ok is false for foreign addresses.
func CodeFromAddress(addr string) (string, bool) {
	if !strings.HasPrefix(addr, Namespace) {
		return "", false
	}
	code := strings.TrimPrefix(addr, Namespace)
	return code, code != ""
}

// ParseJoinInput turns whatever a user pasted (a link with join=CODE, a bare
// code or a full address) into the transport address to dial.
func ParseJoinInput(raw string) (string, error) {
	input := strings.TrimSpace(raw)
	if m := joinParam.FindStringSubmatch(input); m != nil {
		input = m[1]
		if unescaped, err := url.QueryUnescape(input); err == nil {
			input = unescaped
		}
	}
	if input == "" {
		return "", ErrEmptyJoinInput
	}
	if !strings.HasPrefix(input, Namespace) && len(input) <= maxBareCode {
		return Address(input), nil
	}
	return input, nil
}

// JoinURL builds the shareable link for a code.
func JoinURL(base, code string) string {
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimRight(base, "/")
	return base + "/?join=" + url.QueryEscape(code)
}
