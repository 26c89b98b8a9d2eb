package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petervdpas/isoedit/internal/util"
)

type Config struct {
	Tree      Tree      `json:"tree"`
	Maps      Maps      `json:"maps"`
	Workspace Workspace `json:"workspace"`
	Watch     Watch     `json:"watch"`
	Storage   Storage   `json:"storage"`
	Log       Log       `json:"log"`
	Window    Window    `json:"window"`
}

type Tree struct {
	MaxDepth   int `json:"max_depth"`
	MaxEntries int `json:"max_entries"`

	// Hide legacy .map files from the explorer (structured-only view).
	HideLegacy bool `json:"hide_legacy"`
}

type Maps struct {
	// Extensions that open as maps when clicked. Others are ignored.
	Extensions []string `json:"extensions"`

	NewFileBase   string `json:"new_file_base"`   // "untitled" -> untitled.mpr, untitled-1.mpr
	NewFolderBase string `json:"new_folder_base"` // "New Folder" -> New Folder, New Folder 1
	ScaffoldDir   string `json:"scaffold_dir"`    // created by "create project"
	MainFile      string `json:"main_file"`       // default document inside scaffold_dir
	NewWidth      int    `json:"new_width"`
	NewHeight     int    `json:"new_height"`
}

type Workspace struct {
	RestoreTabs bool    `json:"restore_tabs"` // reopen saved tabs when switching projects
	ShowGrid    bool    `json:"show_grid"`
	MinZoom     float32 `json:"min_zoom"`
	MaxZoom     float32 `json:"max_zoom"`
	StatusLines int     `json:"status_lines"`
}

type Watch struct {
	Enabled    bool `json:"enabled"`
	DebounceMS int  `json:"debounce_ms"`
}

type Storage struct {
	DBPath      string `json:"db_path"`
	RecentLimit int    `json:"recent_limit"`
}

type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Window struct {
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Theme  string `json:"theme"`
}

func Default() Config {
	return Config{
		Tree: Tree{
			MaxDepth:   4,
			MaxEntries: 5000,
		},
		Maps: Maps{
			Extensions:    []string{".map", ".mpr"},
			NewFileBase:   "untitled",
			NewFolderBase: "New Folder",
			ScaffoldDir:   "maps",
			MainFile:      "main.mpr",
			NewWidth:      64,
			NewHeight:     64,
		},
		Workspace: Workspace{
			ShowGrid:    true,
			MinZoom:     0.1,
			MaxZoom:     8,
			StatusLines: 200,
		},
		Watch: Watch{
			Enabled:    true,
			DebounceMS: 250,
		},
		Storage: Storage{
			DBPath:      "data/state.db",
			RecentLimit: 10,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Window: Window{
			Title:  "isoedit",
			Width:  1280,
			Height: 800,
			Theme:  "dark",
		},
	}
}

func (c *Config) Validate() error {
	// Tree
	if c.Tree.MaxDepth < 1 {
		return errors.New("tree.max_depth must be >= 1")
	}
	if c.Tree.MaxEntries < 1 {
		return errors.New("tree.max_entries must be >= 1")
	}

	// Maps
	if len(c.Maps.Extensions) == 0 {
		return errors.New("maps.extensions must not be empty")
	}
	for _, e := range c.Maps.Extensions {
		if !strings.HasPrefix(e, ".") || len(e) < 2 {
			return fmt.Errorf("maps.extensions: %q must start with a dot", e)
		}
	}
	if err := simpleName(c.Maps.NewFileBase); err != nil {
		return fmt.Errorf("maps.new_file_base: %w", err)
	}
	if err := simpleName(c.Maps.NewFolderBase); err != nil {
		return fmt.Errorf("maps.new_folder_base: %w", err)
	}
	if err := simpleName(c.Maps.ScaffoldDir); err != nil {
		return fmt.Errorf("maps.scaffold_dir: %w", err)
	}
	if err := simpleName(c.Maps.MainFile); err != nil {
		return fmt.Errorf("maps.main_file: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(c.Maps.MainFile), ".mpr") {
		return errors.New("maps.main_file must be a .mpr file")
	}
	if c.Maps.NewWidth < 1 || c.Maps.NewHeight < 1 {
		return errors.New("maps.new_width and maps.new_height must be >= 1")
	}

	// Workspace
	if c.Workspace.MinZoom <= 0 {
		return errors.New("workspace.min_zoom must be > 0")
	}
	if c.Workspace.MaxZoom < c.Workspace.MinZoom {
		return errors.New("workspace.max_zoom must be >= workspace.min_zoom")
	}
	if c.Workspace.StatusLines < 1 {
		return errors.New("workspace.status_lines must be >= 1")
	}

	// Watch
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch.debounce_ms must be >= 0")
	}

	// Storage
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return errors.New("storage.db_path is required")
	}
	if c.Storage.RecentLimit < 1 {
		return errors.New("storage.recent_limit must be >= 1")
	}

	// Log
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("log.format must be text or json")
	}

	// Window
	if c.Window.Width < 320 || c.Window.Height < 240 {
		return errors.New("window.width/height must be at least 320x240")
	}

	return nil
}

func simpleName(s string) error {
	if _, err := util.ValidateEntryName(s); err != nil {
		return err
	}
	if strings.TrimSpace(s) != s {
		return errors.New("must not have surrounding spaces")
	}
	return nil
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadPartial reads a config file without validation. The CLI falls back to
// it so a half-valid file still supplies tree limits and log settings.
func LoadPartial(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	b = stripBOM(b)

	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return util.WriteJSONFile(path, cfg)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	return cfg, true, nil
}

// HiddenExts returns the extensions the explorer should leave out.
func (c *Config) HiddenExts() []string {
	if c.Tree.HideLegacy {
		return []string{".map"}
	}
	return nil
}

// ResolveDB returns the state database path, relative paths taken from base.
func (c *Config) ResolveDB(base string) string {
	return util.ResolvePath(base, c.Storage.DBPath)
}
