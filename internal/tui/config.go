package tui

import (
	"time"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/service"
	"github.com/Veraticus/gaintrack/internal/tax"
	"github.com/Veraticus/gaintrack/internal/tui/themes"
)

// Config holds dashboard configuration.
type Config struct {
	Store    service.GainStore
	Catalog  *catalog.Catalog
	Now      func() time.Time
	Theme    themes.Theme
	Schedule tax.Schedule
	Period   model.Period
	Width    int
	Height   int
	ShowHelp bool
}

// Option is a functional option for configuring the dashboard.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:    themes.Default,
		Catalog:  catalog.Default(),
		Schedule: tax.Default(),
		Now:      time.Now,
		Period:   model.AllTime,
		Width:    100,
		Height:   30,
	}
}

// WithStore sets the ledger the dashboard reads and mutates.
func WithStore(store service.GainStore) Option {
	return func(c *Config) {
		c.Store = store
	}
}

// WithCatalog sets the category catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Config) {
		if cat != nil {
			c.Catalog = cat
		}
	}
}

// WithSchedule sets the tax schedule used for the estimate.
func WithSchedule(schedule tax.Schedule) Option {
	return func(c *Config) {
		c.Schedule = schedule
	}
}

// WithPeriod sets the initially selected period.
func WithPeriod(period model.Period) Option {
	return func(c *Config) {
		c.Period = period
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithClock overrides the clock used for "this month" and default dates.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.Now = now
		}
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
