package tui

import "github.com/Veraticus/gaintrack/internal/model"

// gainAddedMsg reports the outcome of an add. Gain is set whenever the ledger
// accepted the entry, even if persisting it failed.
type gainAddedMsg struct {
	err  error
	gain model.Gain
}

// gainRemovedMsg reports the outcome of a delete.
type gainRemovedMsg struct {
	err     error
	id      int64
	removed bool
}

type clearStatusMsg struct {
	seq int
}
