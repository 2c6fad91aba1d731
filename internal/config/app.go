package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/common"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// DefaultDataDir is where the ledger lives unless storage.path says otherwise.
const DefaultDataDir = "~/.local/share/gaintrack"

// Storage selects and locates the snapshot backend.
type Storage struct {
	Backend string
	Path    string
}

// App is the resolved configuration the ledger runs with.
type App struct {
	Catalog          *catalog.Catalog
	Storage          Storage
	Schedule         tax.Schedule
	ImportDefaultTag string
	StrictCategories bool
}

type categoryEntry struct {
	Name    string `mapstructure:"name"`
	Color   string `mapstructure:"color"`
	Taxable bool   `mapstructure:"taxable"`
}

type bracketEntry struct {
	Upper string `mapstructure:"upper"`
	Rate  string `mapstructure:"rate"`
}

// SetDefaults registers default values for every key Load reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.path", "")
	v.SetDefault("ledger.strict_categories", false)
	v.SetDefault("tax.preset", tax.PresetDefault)
	v.SetDefault("import.default_tag", "Other")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves the application configuration from v.
func Load(v *viper.Viper) (*App, error) {
	storage, err := LoadStorage(v)
	if err != nil {
		return nil, err
	}
	cat, err := LoadCatalog(v)
	if err != nil {
		return nil, err
	}
	schedule, err := LoadSchedule(v)
	if err != nil {
		return nil, err
	}

	return &App{
		Storage:          storage,
		Catalog:          cat,
		Schedule:         schedule,
		StrictCategories: v.GetBool("ledger.strict_categories"),
		ImportDefaultTag: v.GetString("import.default_tag"),
	}, nil
}

// LoadStorage reads storage.backend and storage.path. An empty path picks a file
// in DefaultDataDir named for the backend.
func LoadStorage(v *viper.Viper) (Storage, error) {
	backend := strings.ToLower(strings.TrimSpace(v.GetString("storage.backend")))
	if backend == "" {
		backend = BackendSQLite
	}

	var name string
	switch backend {
	case BackendSQLite:
		name = "ledger.db"
	case BackendFile:
		name = "ledger.json"
	default:
		return Storage{}, fmt.Errorf("%w: unknown storage backend %q (want %s or %s)",
			common.ErrInvalidConfig, backend, BackendSQLite, BackendFile)
	}

	path := v.GetString("storage.path")
	if path == "" {
		path = filepath.Join(DefaultDataDir, name)
	}

	return Storage{Backend: backend, Path: ExpandPath(path)}, nil
}

// LoadCatalog builds the catalog from the categories list, or returns the default
// catalog when none is configured.
func LoadCatalog(v *viper.Viper) (*catalog.Catalog, error) {
	if !v.IsSet("categories") {
		return catalog.Default(), nil
	}

	var entries []categoryEntry
	if err := v.UnmarshalKey("categories", &entries); err != nil {
		return nil, fmt.Errorf("%w: categories: %w", common.ErrInvalidConfig, err)
	}
	if len(entries) == 0 {
		return catalog.Default(), nil
	}

	categories := make([]model.Category, len(entries))
	for i, e := range entries {
		categories[i] = model.Category(e)
	}

	cat, err := catalog.New(categories...)
	if err != nil {
		return nil, fmt.Errorf("%w: categories: %w", common.ErrInvalidConfig, err)
	}
	return cat, nil
}

// LoadSchedule builds the tax schedule. Explicit tax.brackets win over tax.preset.
func LoadSchedule(v *viper.Viper) (tax.Schedule, error) {
	if v.IsSet("tax.brackets") {
		var entries []bracketEntry
		if err := v.UnmarshalKey("tax.brackets", &entries); err != nil {
			return tax.Schedule{}, fmt.Errorf("%w: tax.brackets: %w", common.ErrInvalidConfig, err)
		}
		if len(entries) > 0 {
			return scheduleFromEntries(entries)
		}
	}

	schedule, err := tax.Preset(v.GetString("tax.preset"))
	if err != nil {
		return tax.Schedule{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return schedule, nil
}

func scheduleFromEntries(entries []bracketEntry) (tax.Schedule, error) {
	brackets := make([]tax.Bracket, len(entries))
	for i, e := range entries {
		rate, err := decimal.NewFromString(strings.TrimSpace(e.Rate))
		if err != nil {
			return tax.Schedule{}, fmt.Errorf("%w: tax.brackets[%d].rate %q is not a number", common.ErrInvalidConfig, i, e.Rate)
		}

		upper := strings.TrimSpace(e.Upper)
		if upper == "" {
			brackets[i] = tax.Above(rate)
			continue
		}
		bound, err := decimal.NewFromString(upper)
		if err != nil {
			return tax.Schedule{}, fmt.Errorf("%w: tax.brackets[%d].upper %q is not a number", common.ErrInvalidConfig, i, e.Upper)
		}
		brackets[i] = tax.UpTo(bound, rate)
	}

	schedule, err := tax.NewSchedule(brackets...)
	if err != nil {
		return tax.Schedule{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return schedule, nil
}
