// Package tui implements the interactive gains dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/gaintrack/internal/cli"
	"github.com/Veraticus/gaintrack/internal/engine"
	"github.com/Veraticus/gaintrack/internal/ledger"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// State represents the current dashboard mode.
type State int

const (
	// StateBrowse shows the gains table and totals.
	StateBrowse State = iota
	// StateAdding shows the add-gain form.
	StateAdding
	// StateConfirmDelete asks before removing the selected gain.
	StateConfirmDelete
)

const (
	fieldAmount = iota
	fieldTag
	fieldDate
	fieldCount
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx           context.Context
	config        Config
	keymap        KeyMap
	help          help.Model
	table         table.Model
	inputs        []textinput.Model
	visible       model.Ledger
	nodes         []model.CategoryNode
	totals        model.Totals
	ledgerTax     decimal.Decimal
	period        model.Period
	status        string
	formErr       string
	pendingDelete int64
	focus         int
	statusSeq     int
	statusKind    statusKind
	width         int
	height        int
	state         State
	quitting      bool
}

// New builds a dashboard model.
func New(ctx context.Context, opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Store == nil {
		return Model{}, errors.New("dashboard requires a ledger store")
	}

	m := Model{
		ctx:    ctx,
		config: cfg,
		keymap: DefaultKeyMap(),
		help:   help.New(),
		period: cfg.Period,
		width:  cfg.Width,
		height: cfg.Height,
		inputs: newFormInputs(cfg),
	}
	m.help.ShowAll = cfg.ShowHelp
	m.table = table.New(
		table.WithColumns(tableColumns()),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)
	m.table.SetStyles(tableStyles(cfg.Theme))
	m.refresh()
	return m, nil
}

func newFormInputs(cfg Config) []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)

	amount := textinput.New()
	amount.Placeholder = "1,500,000"
	amount.CharLimit = 24

	tag := textinput.New()
	tag.Placeholder = strings.Join(cfg.Catalog.Names(), ", ")
	tag.CharLimit = 64
	tag.ShowSuggestions = true
	tag.SetSuggestions(cfg.Catalog.Names())

	date := textinput.New()
	date.Placeholder = cfg.Now().Format(time.DateOnly)
	date.CharLimit = len(time.DateOnly)

	inputs[fieldAmount] = amount
	inputs[fieldTag] = tag
	inputs[fieldDate] = date
	return inputs
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(m.tableHeight())
		return m, nil

	case gainAddedMsg:
		return m.handleGainAdded(msg)

	case gainRemovedMsg:
		return m.handleGainRemoved(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.state {
		case StateAdding:
			return m.updateForm(msg)
		case StateConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.table.SetHeight(m.tableHeight())
		return m, nil

	case key.Matches(msg, m.keymap.PrevPeriod):
		m.setPeriod(m.anchorPeriod().Prev())
		return m, nil

	case key.Matches(msg, m.keymap.NextPeriod):
		m.setPeriod(m.anchorPeriod().Next())
		return m, nil

	case key.Matches(msg, m.keymap.ThisMonth):
		m.setPeriod(model.MonthOf(m.config.Now()))
		return m, nil

	case key.Matches(msg, m.keymap.AllTime):
		m.setPeriod(model.AllTime)
		return m, nil

	case key.Matches(msg, m.keymap.Add):
		return m.openForm()

	case key.Matches(msg, m.keymap.Delete):
		id, ok := m.selectedID()
		if !ok {
			return m, m.setStatus(statusInfo, "Nothing to delete")
		}
		m.pendingDelete = id
		m.state = StateConfirmDelete
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	m.pendingDelete = 0
	m.state = StateBrowse

	if key.Matches(msg, m.keymap.Confirm) {
		return m, removeGainCmd(m.ctx, m.config.Store, id)
	}
	return m, m.setStatus(statusInfo, "Delete canceled")
}

func (m Model) openForm() (tea.Model, tea.Cmd) {
	m.state = StateAdding
	m.formErr = ""
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.focus = fieldAmount
	return m, m.inputs[m.focus].Focus()
}

func (m Model) closeForm() Model {
	m.state = StateBrowse
	m.formErr = ""
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		return m.closeForm(), nil

	case key.Matches(msg, m.keymap.Submit):
		return m.submitForm()

	case key.Matches(msg, m.keymap.NextField):
		return m.focusField((m.focus + 1) % fieldCount)

	case key.Matches(msg, m.keymap.PrevField):
		return m.focusField((m.focus + fieldCount - 1) % fieldCount)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) focusField(field int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = field
	return m, m.inputs[m.focus].Focus()
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	amount, err := ledger.ParseAmount(m.inputs[fieldAmount].Value())
	if err != nil {
		m.formErr = err.Error()
		return m, nil
	}

	tag := strings.TrimSpace(m.inputs[fieldTag].Value())
	if tag == "" {
		m.formErr = "source is required"
		return m, nil
	}

	var date time.Time
	if raw := strings.TrimSpace(m.inputs[fieldDate].Value()); raw != "" {
		date, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			m.formErr = fmt.Sprintf("date %q must be YYYY-MM-DD", raw)
			return m, nil
		}
	}

	m.formErr = ""
	return m, addGainCmd(m.ctx, m.config.Store, amount, tag, date)
}

func (m Model) handleGainAdded(msg gainAddedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && !errors.Is(msg.err, ledger.ErrPersistenceWrite) {
		m.formErr = msg.err.Error()
		return m, nil
	}

	m = m.closeForm()
	m.refresh()

	if msg.err != nil {
		return m, m.setStatus(statusWarning, fmt.Sprintf("Added #%d but could not save: %v", msg.gain.ID, msg.err))
	}
	text := fmt.Sprintf("Added #%d: %s %s", msg.gain.ID, cli.FormatAmount(msg.gain.Amount), msg.gain.Tag)
	if !m.period.Contains(msg.gain.Date) {
		text += fmt.Sprintf(" (outside %s)", periodLabel(m.period))
	}
	return m, m.setStatus(statusSuccess, text)
}

func (m Model) handleGainRemoved(msg gainRemovedMsg) (tea.Model, tea.Cmd) {
	m.refresh()

	switch {
	case msg.err != nil && errors.Is(msg.err, ledger.ErrPersistenceWrite):
		return m, m.setStatus(statusWarning, fmt.Sprintf("Removed #%d but could not save: %v", msg.id, msg.err))
	case msg.err != nil:
		return m, m.setStatus(statusError, msg.err.Error())
	case !msg.removed:
		return m, m.setStatus(statusInfo, fmt.Sprintf("Gain #%d was already gone", msg.id))
	default:
		return m, m.setStatus(statusSuccess, fmt.Sprintf("Removed #%d", msg.id))
	}
}

func (m *Model) setStatus(kind statusKind, text string) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusKind = kind
	return clearStatusAfter(m.statusSeq)
}

// anchorPeriod is where month navigation starts from when all time is shown.
func (m Model) anchorPeriod() model.Period {
	if m.period.IsAll() {
		return model.MonthOf(m.config.Now())
	}
	return m.period
}

func (m *Model) setPeriod(p model.Period) {
	m.period = p
	m.refresh()
	m.table.GotoTop()
}

// refresh recomputes the visible rows and derived totals from the store.
func (m *Model) refresh() {
	cat := m.config.Catalog

	all := m.config.Store.Snapshot()
	m.visible = engine.FilterByPeriod(all, m.period)
	m.totals = engine.Derive(m.visible, cat, m.config.Schedule)
	m.nodes = engine.CategoryNodes(m.totals.ByCategory, cat)

	m.ledgerTax = m.totals.EstimatedTax
	if !m.period.IsAll() {
		m.ledgerTax = engine.EstimatedTax(engine.TaxableBaseOf(all, cat), m.config.Schedule)
	}

	rows := make([]table.Row, 0, len(m.visible))
	for _, g := range m.visible {
		status := "unknown"
		if c, ok := cat.Lookup(g.Tag); ok {
			status = c.TaxLabel()
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(g.ID, 10),
			g.Date.Format(time.DateOnly),
			g.Tag,
			cli.FormatAmount(g.Amount),
			status,
		})
	}
	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) selectedID() (int64, bool) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (m Model) tableHeight() int {
	reserved := 10
	if m.help.ShowAll {
		reserved += 4
	}
	return max(3, m.height-reserved)
}

// State returns the current mode.
func (m Model) State() State {
	return m.state
}

// Period returns the selected period.
func (m Model) Period() model.Period {
	return m.period
}

// Totals returns the totals derived for the selected period.
func (m Model) Totals() model.Totals {
	return m.totals
}

// LedgerTax returns the estimated tax over every gain, whatever the period.
func (m Model) LedgerTax() decimal.Decimal {
	return m.ledgerTax
}
