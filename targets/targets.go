package targets

import (
	_ "embed"
	"errors"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"omibyte.io/pit64/peripheral/pit64"
	"omibyte.io/pit64/peripheral/pit64/chip"
)

//go:embed targets.yaml
var rawTargets []byte

var targets Targets

var (
	ErrSeriesNotFound = errors.New("series not found")
	ErrChipNotFound   = errors.New("chip not found")
	ErrTimerNotFound  = errors.New("timer not found")
)

func All() Targets {
	return targets
}

type Targets []TargetInfo
type TargetInfo struct {
	Series       string         `yaml:"series"`
	Chips        []string       `yaml:"chips"`
	TickHz       uint64         `yaml:"tickHz"`
	GenericClock bool           `yaml:"genericClock"`
	Timers       []TimerInfo    `yaml:"timers"`
	Layout       map[string]int `yaml:"layout"`
}

type TimerInfo struct {
	Name       string `yaml:"name"`
	Compatible string `yaml:"compatible"`
	Base       uint64 `yaml:"base"`
	IRQ        uint32 `yaml:"irq"`
	ClockRate  uint64 `yaml:"clockRate"`
}

// Role returns the role the timer's compatible string asks for.
func (t TimerInfo) Role() (pit64.Role, bool) {
	return pit64.RoleForCompatible(t.Compatible)
}

// RegisterLayout applies the series overrides to the default layout.
func (t TargetInfo) RegisterLayout() (chip.Layout, error) {
	layout := chip.DefaultLayout
	if len(t.Layout) == 0 {
		return layout, nil
	}

	// Round-trip through YAML so overrides use the same keys as chip.Layout.
	raw, err := yaml.Marshal(t.Layout)
	if err != nil {
		return layout, err
	}
	if err = yaml.Unmarshal(raw, &layout); err != nil {
		return layout, err
	}
	return layout, nil
}

// Config returns the driver configuration for this series.
func (t TargetInfo) Config() (pit64.Config, error) {
	cfg := pit64.DefaultConfig()
	if t.TickHz != 0 {
		cfg.TickHz = t.TickHz
	}
	cfg.GenericClock = t.GenericClock

	layout, err := t.RegisterLayout()
	if err != nil {
		return cfg, err
	}
	cfg.Layout = layout
	return cfg, nil
}

func (t TargetInfo) FindTimer(name string) (TimerInfo, error) {
	for _, timer := range t.Timers {
		if timer.Name == name {
			return timer, nil
		}
	}
	return TimerInfo{}, ErrTimerNotFound
}

func (t Targets) FindBySeries(name string) (TargetInfo, error) {
	for _, target := range t {
		if target.Series == strings.ToLower(name) {
			return target, nil
		}
	}
	return TargetInfo{}, ErrSeriesNotFound
}

func (t Targets) FindByChip(name string) (TargetInfo, error) {
	for _, target := range t {
		if slices.Contains(target.Chips, strings.ToLower(name)) {
			return target, nil
		}
	}
	return TargetInfo{}, ErrChipNotFound
}

// Find looks name up as a chip first and as a series second.
func (t Targets) Find(name string) (TargetInfo, error) {
	if target, err := t.FindByChip(name); err == nil {
		return target, nil
	}
	return t.FindBySeries(name)
}

// Series returns the series names in sorted order.
func (t Targets) Series() []string {
	set := make(map[string]struct{}, len(t))
	for _, target := range t {
		set[target.Series] = struct{}{}
	}
	names := maps.Keys(set)
	slices.Sort(names)
	return names
}

func parse(raw []byte) (Targets, error) {
	var t struct {
		Elements []TargetInfo `yaml:"targets"`
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return t.Elements, nil
}

func init() {
	t, err := parse(rawTargets)
	if err != nil {
		panic(err)
	}

	targets = t
}
