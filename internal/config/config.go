// Package config loads the category table and analysis settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/map-coverage/internal/classify"
	"github.com/ironsheep/map-coverage/internal/raster"
)

// Mask output formats.
const (
	FormatTIFF = "tif"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Config holds one run's analysis settings.
type Config struct {
	// ChannelOrder is the canonical order of both pixel buffers and numeric
	// category bounds: "rgb" or "bgr".
	ChannelOrder string `yaml:"channel_order"`

	// PartitionDepth is the number of recursive quadrant splits; 0 analyzes
	// whole images.
	PartitionDepth int `yaml:"partition_depth"`

	// Workers bounds concurrent leaf analysis; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`

	// MaskFormat is the file format composite masks are written in.
	MaskFormat string `yaml:"mask_format"`

	Categories []CategoryConfig `yaml:"categories"`
}

// CategoryConfig is one entry of the category table.
type CategoryConfig struct {
	Name        string `yaml:"name"`
	Min         Bound  `yaml:"min"`
	Max         Bound  `yaml:"max"`
	BorderProne bool   `yaml:"border_prone,omitempty"`
}

// Bound is a category bound written either as a list of channel values in
// the configured channel order, or as an "#RRGGBB" hex color.
type Bound struct {
	Values []uint8
	Hex    string
}

// Channels returns the bound's values in the given channel order. Hex
// bounds are always RGB and get permuted; numeric bounds are taken as-is.
func (b Bound) Channels(order raster.ChannelOrder) ([]uint8, error) {
	if b.Hex != "" {
		c, err := colorful.Hex(b.Hex)
		if err != nil {
			return nil, fmt.Errorf("invalid hex color %q: %w", b.Hex, err)
		}
		r, g, bl := c.RGB255()
		return order.Permute(r, g, bl), nil
	}
	if len(b.Values) == 0 {
		return nil, fmt.Errorf("bound is empty")
	}
	return append([]uint8(nil), b.Values...), nil
}

// UnmarshalYAML accepts a sequence of integers or a hex string.
func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s := strings.TrimSpace(node.Value)
		if !strings.HasPrefix(s, "#") {
			return fmt.Errorf("line %d: bound %q must be a list or a #RRGGBB color", node.Line, s)
		}
		*b = Bound{Hex: s}
		return nil
	case yaml.SequenceNode:
		var ints []int
		if err := node.Decode(&ints); err != nil {
			return err
		}
		vals := make([]uint8, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return fmt.Errorf("line %d: channel value %d out of range 0-255", node.Line, v)
			}
			vals[i] = uint8(v)
		}
		*b = Bound{Values: vals}
		return nil
	default:
		return fmt.Errorf("line %d: bound must be a list or a #RRGGBB color", node.Line)
	}
}

// MarshalYAML writes the bound back in the form it was given.
func (b Bound) MarshalYAML() (interface{}, error) {
	if b.Hex != "" {
		return b.Hex, nil
	}
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range b.Values {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!int",
			Value: fmt.Sprintf("%d", v),
		})
	}
	return node, nil
}

// Default returns the configuration for the topographic map legend the tool
// was built for.
func Default() *Config {
	return &Config{
		ChannelOrder:   string(raster.RGB),
		PartitionDepth: 0,
		Workers:        0,
		MaskFormat:     FormatTIFF,
		Categories:     defaultCategories(raster.RGB),
	}
}

// defaultCategories returns the legend table with numeric bounds written
// in the given channel order.
func defaultCategories(order raster.ChannelOrder) []CategoryConfig {
	rgb := func(r, g, b uint8) Bound { return Bound{Values: order.Permute(r, g, b)} }
	return []CategoryConfig{
		{Name: "black", Min: rgb(0, 0, 0), Max: rgb(20, 20, 20)},
		{Name: "grey", Min: rgb(50, 50, 50), Max: rgb(90, 90, 90)},
		{Name: "blue", Min: rgb(0, 30, 60), Max: rgb(10, 102, 202)},
		{Name: "green", Min: rgb(0, 40, 0), Max: rgb(30, 132, 60)},
		{Name: "brown", Min: rgb(190, 80, 30), Max: rgb(240, 150, 74), BorderProne: true},
		{Name: "red", Min: rgb(180, 0, 20), Max: rgb(205, 10, 55), BorderProne: true},
	}
}

// LoadFile reads a YAML configuration file. Settings missing from the file
// keep their Default values; a file that lists categories replaces the
// default table entirely. Without categories the default legend is used in
// the file's channel order.
func LoadFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	cfg.Categories = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if len(cfg.Categories) == 0 {
		// An invalid order is reported by Validate below.
		order, _ := raster.ParseChannelOrder(cfg.ChannelOrder)
		cfg.Categories = defaultCategories(order)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Order returns the parsed channel order.
func (c *Config) Order() (raster.ChannelOrder, error) {
	return raster.ParseChannelOrder(c.ChannelOrder)
}

// Table resolves the configured categories into a classification table in
// the configured channel order.
func (c *Config) Table() (classify.Table, error) {
	order, err := c.Order()
	if err != nil {
		return nil, err
	}

	table := make(classify.Table, 0, len(c.Categories))
	for _, cc := range c.Categories {
		lower, err := cc.Min.Channels(order)
		if err != nil {
			return nil, fmt.Errorf("category %q min: %w", cc.Name, err)
		}
		upper, err := cc.Max.Channels(order)
		if err != nil {
			return nil, fmt.Errorf("category %q max: %w", cc.Name, err)
		}
		table = append(table, classify.Category{
			Name:        cc.Name,
			Lower:       lower,
			Upper:       upper,
			BorderProne: cc.BorderProne,
		})
	}
	return table, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PartitionDepth < 0 {
		return fmt.Errorf("partition_depth must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	switch c.MaskFormat {
	case FormatTIFF, FormatPNG, FormatWebP:
	default:
		return fmt.Errorf("mask_format must be one of tif, png, webp")
	}

	table, err := c.Table()
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}
	if table.Width() != 3 {
		return fmt.Errorf("category bounds must have 3 channels, got %d", table.Width())
	}
	return nil
}
