package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/notnil/canutil/timing"
)

// fileConfig is the --config file layout:
//
//	[defaults]
//	controller = "board"
//	protocol = "canopen"
//
//	[controllers.board]
//	clock = 80
//	max_prescaler = 512
//	max_seg1 = 256
//	max_seg2 = 128
//	max_jump_width = 128
type fileConfig struct {
	Defaults    defaultsConfig              `toml:"defaults"`
	Controllers map[string]controllerConfig `toml:"controllers"`
}

type defaultsConfig struct {
	Clock      uint32 `toml:"clock"`
	Controller string `toml:"controller"`
	Protocol   string `toml:"protocol"`
	JumpWidth  uint16 `toml:"jump_width"`
}

type controllerConfig struct {
	// Clock is the controller's CAN clock in MHz, used when --clock is unset.
	Clock        uint32 `toml:"clock"`
	MaxPrescaler uint32 `toml:"max_prescaler"`
	MaxSeg1      uint16 `toml:"max_seg1"`
	MaxSeg2      uint16 `toml:"max_seg2"`
	MaxJumpWidth uint16 `toml:"max_jump_width"`
}

func (c controllerConfig) limits() timing.Limits {
	return timing.Limits{
		MaxPrescaler: c.MaxPrescaler,
		MaxSeg1:      timing.SegmentLength(c.MaxSeg1),
		MaxSeg2:      timing.SegmentLength(c.MaxSeg2),
		MaxJumpWidth: timing.SegmentLength(c.MaxJumpWidth),
	}
}

func loadConfig(path string) (*fileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	cfg, err := parseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(r io.Reader) (*fileConfig, error) {
	var cfg fileConfig
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	names := make([]string, 0, len(cfg.Controllers))
	for name := range cfg.Controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cfg.Controllers[name].limits().Validate(); err != nil {
			return nil, fmt.Errorf("controller %q: %w", name, err)
		}
	}
	if p := cfg.Defaults.Protocol; p != "" {
		if _, ok := timing.Recommended(p); !ok {
			return nil, fmt.Errorf("unknown default protocol %q", p)
		}
	}
	return &cfg, nil
}

// controller looks a profile up in the config first, then among the
// built-in controllers.
func (c *fileConfig) controller(name string) (controllerConfig, bool) {
	if cc, ok := c.Controllers[name]; ok {
		return cc, true
	}
	l, ok := timing.Controller(name)
	if !ok {
		return controllerConfig{}, false
	}
	return controllerConfig{
		MaxPrescaler: l.MaxPrescaler,
		MaxSeg1:      uint16(l.MaxSeg1),
		MaxSeg2:      uint16(l.MaxSeg2),
		MaxJumpWidth: uint16(l.MaxJumpWidth),
	}, true
}
