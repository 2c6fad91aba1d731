package tax

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Preset names.
const (
	PresetDefault   = "default"
	PresetGraduated = "graduated"
)

// Default is the threshold schedule: nothing up to 800,000, 15% up to 3,000,000, 25% above.
func Default() Schedule {
	return MustSchedule(
		UpTo(decimal.NewFromInt(800_000), decimal.Zero),
		UpTo(decimal.NewFromInt(3_000_000), decimal.RequireFromString("0.15")),
		Above(decimal.RequireFromString("0.25")),
	)
}

// Graduated taxes from the first unit: 7% up to 300,000, 11% up to 600,000,
// 15% up to 1,100,000 and 24% above.
func Graduated() Schedule {
	return MustSchedule(
		UpTo(decimal.NewFromInt(300_000), decimal.RequireFromString("0.07")),
		UpTo(decimal.NewFromInt(600_000), decimal.RequireFromString("0.11")),
		UpTo(decimal.NewFromInt(1_100_000), decimal.RequireFromString("0.15")),
		Above(decimal.RequireFromString("0.24")),
	)
}

var presets = map[string]func() Schedule{
	PresetDefault:   Default,
	PresetGraduated: Graduated,
}

// Preset returns the named schedule. An empty name selects the default.
func Preset(name string) (Schedule, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = PresetDefault
	}
	build, ok := presets[name]
	if !ok {
		return Schedule{}, fmt.Errorf("%w: unknown preset %q (known: %s)",
			ErrInvalidSchedule, name, strings.Join(PresetNames(), ", "))
	}
	return build(), nil
}

// PresetNames lists the known preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
