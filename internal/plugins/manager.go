package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Conceptual-Machines/merlai/internal/logger"
	"gopkg.in/yaml.v3"
)

// MaxRecommendations caps Recommend results.
const MaxRecommendations = 5

var pluginExtensions = map[string]bool{
	".vst":       true,
	".vst3":      true,
	".component": true,
	".dll":       true,
	".so":        true,
}

var styleKeywords = map[string][]string{
	"pop":        {"pop", "modern", "contemporary"},
	"rock":       {"rock", "guitar", "distortion"},
	"jazz":       {"jazz", "smooth", "acoustic"},
	"electronic": {"synth", "electronic", "digital"},
	"classical":  {"orchestral", "classical", "acoustic"},
}

var instrumentKeywords = map[string][]string{
	"bass":  {"bass", "low", "sub"},
	"lead":  {"lead", "solo", "melody"},
	"drums": {"drum", "percussion", "rhythm"},
	"pad":   {"pad", "ambient", "atmospheric"},
}

var ErrPluginNotFound = errors.New("plugin not found")

// Info describes a plugin found on disk. Metadata other than the name and
// format is not read from the binary.
type Info struct {
	Name         string   `json:"name" yaml:"name"`
	Version      string   `json:"version" yaml:"version"`
	Manufacturer string   `json:"manufacturer" yaml:"manufacturer"`
	Type         string   `json:"plugin_type" yaml:"plugin_type"`
	Category     string   `json:"category" yaml:"category"`
	FilePath     string   `json:"file_path" yaml:"file_path"`
	Parameters   []string `json:"parameters" yaml:"-"`
	Presets      []string `json:"presets" yaml:"-"`
	Loaded       bool     `json:"is_loaded" yaml:"is_loaded"`
}

type Parameter struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Min       float64 `json:"min_value"`
	Max       float64 `json:"max_value"`
	Default   float64 `json:"default_value"`
	Unit      string  `json:"unit"`
	Automated bool    `json:"is_automated"`
}

type Preset struct {
	Name       string             `json:"name"`
	Parameters map[string]float64 `json:"parameters"`
	Category   string             `json:"category"`
}

// exportFile is the on-disk layout of ExportPresets.
type exportFile struct {
	Plugins map[string]Info `yaml:"plugins"`
}

// Manager keeps the plugin inventory. It is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	paths  []string
	byName map[string]*Info
	loaded map[string]map[string]float64 // plugin -> parameter values
}

// NewManager returns a manager searching paths.
func NewManager(paths []string) *Manager {
	return &Manager{
		paths:  paths,
		byName: map[string]*Info{},
		loaded: map[string]map[string]float64{},
	}
}

func (m *Manager) Paths() []string {
	return append([]string(nil), m.paths...)
}

// Scan walks the search paths and records every plugin bundle or library.
// Missing directories are skipped. Bundles (.vst, .component, ...) are
// directories on macOS and are not descended into.
func (m *Manager) Scan() []Info {
	var found []*Info

	for _, root := range m.paths {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// unreadable subtrees are skipped
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path == root || !isPluginFile(path) {
				return nil
			}
			found = append(found, infoFromPath(path))
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		})
		if err != nil {
			logger.Warn("Plugin scan failed", logger.Fields{"path": root, "error": err.Error()})
		}
	}

	// A rescan refreshes file metadata but keeps loaded plugins loaded.
	out := make([]Info, 0, len(found))
	m.mu.Lock()
	for _, info := range found {
		_, info.Loaded = m.loaded[info.Name]
		m.byName[info.Name] = info
		out = append(out, *info)
	}
	m.mu.Unlock()

	logger.Debug("Plugin scan complete", logger.Fields{"found": len(found), "paths": len(m.paths)})
	return out
}

// List returns every known plugin sorted by name.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Info, 0, len(m.byName))
	for _, info := range m.byName {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Recommend scores plugins by how many style and instrument keywords
// appear in their name, category and manufacturer, and returns the best
// MaxRecommendations with a positive score.
func (m *Manager) Recommend(style, instrument string) []Info {
	keywords := append(append([]string{}, styleKeywords[strings.ToLower(style)]...), instrumentKeywords[strings.ToLower(instrument)]...)
	if len(keywords) == 0 {
		return []Info{}
	}

	type scored struct {
		info  Info
		score int
	}
	var candidates []scored
	for _, info := range m.List() {
		text := strings.ToLower(info.Name + " " + info.Category + " " + info.Manufacturer)
		score := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{info: info, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > MaxRecommendations {
		candidates = candidates[:MaxRecommendations]
	}

	out := make([]Info, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.info)
	}
	return out
}

// Load marks a known plugin as loaded with default parameter values.
func (m *Manager) Load(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.byName[name]
	if !ok {
		return false
	}
	info.Loaded = true
	if _, ok := m.loaded[name]; !ok {
		values := map[string]float64{}
		for _, p := range defaultParameters() {
			values[p.Name] = p.Value
		}
		m.loaded[name] = values
	}
	return true
}

func (m *Manager) IsLoaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.loaded[name]
	return ok
}

// Parameters returns the parameters of a loaded plugin, or an empty list.
func (m *Manager) Parameters(name string) []Parameter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values, ok := m.loaded[name]
	if !ok {
		return []Parameter{}
	}
	params := defaultParameters()
	for i := range params {
		params[i].Value = values[params[i].Name]
	}
	return params
}

// SetParameter sets a parameter on a loaded plugin. The value must lie
// within the parameter's range.
func (m *Manager) SetParameter(name, parameter string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.loaded[name]
	if !ok {
		return fmt.Errorf("%w or not loaded: %s", ErrPluginNotFound, name)
	}
	for _, p := range defaultParameters() {
		if p.Name != parameter {
			continue
		}
		if value < p.Min || value > p.Max {
			return fmt.Errorf("parameter %s must be between %g and %g", parameter, p.Min, p.Max)
		}
		values[parameter] = value
		return nil
	}
	return fmt.Errorf("unknown parameter %s for plugin %s", parameter, name)
}

// Presets returns the presets of a known plugin, or an empty list.
func (m *Manager) Presets(name string) []Preset {
	m.mu.RLock()
	_, ok := m.byName[name]
	m.mu.RUnlock()
	if !ok {
		return []Preset{}
	}
	return []Preset{
		{Name: "Default", Parameters: map[string]float64{"Volume": 0.5, "Cutoff": 0.7}, Category: "Default"},
		{Name: "Bright", Parameters: map[string]float64{"Volume": 0.6, "Cutoff": 0.9}, Category: "Bright"},
	}
}

func (m *Manager) Info(name string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.byName[name]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// ExportPresets writes the inventory to a YAML file.
func (m *Manager) ExportPresets(path string) error {
	out := exportFile{Plugins: map[string]Info{}}
	for _, info := range m.List() {
		out.Plugins[info.Name] = info
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode plugin config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write plugin config: %w", err)
	}
	return nil
}

// ImportPresets merges an inventory written by ExportPresets. Imported
// plugins replace known ones with the same name.
func (m *Manager) ImportPresets(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read plugin config: %w", err)
	}
	var in exportFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to decode plugin config: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, info := range in.Plugins {
		if info.Name == "" {
			info.Name = name
		}
		info.Parameters = []string{}
		info.Presets = []string{}
		m.byName[name] = &info
		if info.Loaded {
			values := map[string]float64{}
			for _, p := range defaultParameters() {
				values[p.Name] = p.Value
			}
			m.loaded[name] = values
		}
	}
	return nil
}

func isPluginFile(path string) bool {
	return pluginExtensions[strings.ToLower(filepath.Ext(path))]
}

func infoFromPath(path string) *Info {
	ext := filepath.Ext(path)
	return &Info{
		Name:         strings.TrimSuffix(filepath.Base(path), ext),
		Version:      "1.0.0",
		Manufacturer: "Unknown",
		Type:         strings.ToUpper(strings.TrimPrefix(ext, ".")),
		Category:     "Synth",
		FilePath:     path,
		Parameters:   []string{"Volume", "Cutoff", "Resonance"},
		Presets:      []string{"Default", "Bright", "Dark"},
	}
}

func defaultParameters() []Parameter {
	return []Parameter{
		{Name: "Volume", Value: 0.5, Min: 0, Max: 1, Default: 0.5, Unit: "dB"},
		{Name: "Cutoff", Value: 0.7, Min: 0, Max: 1, Default: 0.5, Unit: "Hz"},
	}
}
