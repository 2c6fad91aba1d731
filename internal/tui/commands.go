package tui

import (
	"context"
	"time"

	"github.com/Veraticus/gaintrack/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

const (
	mutationTimeout = 10 * time.Second
	statusLifetime  = 4 * time.Second
)

func addGainCmd(ctx context.Context, store service.GainStore, amount decimal.Decimal, tag string, date time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, mutationTimeout)
		defer cancel()

		gain, err := store.Add(ctx, amount, tag, date)
		return gainAddedMsg{gain: gain, err: err}
	}
}

func removeGainCmd(ctx context.Context, store service.GainStore, id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, mutationTimeout)
		defer cancel()

		removed, err := store.Remove(ctx, id)
		return gainRemovedMsg{id: id, removed: removed, err: err}
	}
}

func clearStatusAfter(seq int) tea.Cmd {
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
