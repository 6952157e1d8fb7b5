package main

import (
	"errors"

	clipboard "golang.design/x/clipboard"
	"github.com/rs/zerolog/log"
)

var errNoClipboard = errors.New("clipboard unavailable")

// Clipboard wraps the system clipboard; on machines without one every call
// is a no-op that reports errNoClipboard.
type Clipboard struct {
	ok bool
}

func NewClipboard() *Clipboard {
	if err := clipboard.Init(); err != nil {
		log.Warn().Err(err).Msg("clipboard disabled")
		return &Clipboard{}
	}
	return &Clipboard{ok: true}
}

func (c *Clipboard) Copy(s string) error {
	if c == nil || !c.ok {
		return errNoClipboard
	}
	clipboard.Write(clipboard.FmtText, []byte(s))
	return nil
}

func (c *Clipboard) Paste() (string, error) {
	if c == nil || !c.ok {
		return "", errNoClipboard
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}
