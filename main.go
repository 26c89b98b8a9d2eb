// main.go
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"

	"github.com/petervdpas/isoedit/internal/config"
	"github.com/petervdpas/isoedit/internal/logger"
	"github.com/petervdpas/isoedit/internal/mapfile"
	"github.com/petervdpas/isoedit/internal/project"
	"github.com/petervdpas/isoedit/internal/tree"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/appicon.png
var appIcon []byte

var (
	showHelp = flag.Bool("h", false, "Show help")
	version  = flag.Bool("version", false, "Show version")
	cfgFlag  = flag.String("config", "isoedit.json", "Editor config file")
)

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
var appVersion = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("isoedit v%s\n", appVersion)
		return
	}
	if *showHelp {
		showUsage()
		return
	}

	args := flag.Args()

	// No arguments - run desktop UI
	if len(args) == 0 {
		runDesktopApp()
		return
	}

	cfg := loadCLIConfig(*cfgFlag)
	logger.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	var err error
	switch command := args[0]; command {
	case "inspect":
		err = needArgs(args, 1, "isoedit inspect <map-file>")
		if err == nil {
			err = runInspect(args[1])
		}
	case "tree":
		err = runTree(cfg, args[1:])
	case "new":
		err = needArgs(args, 1, "isoedit new <directory>")
		if err == nil {
			err = runNew(cfg, args[1])
		}
	case "convert":
		err = needArgs(args, 2, "isoedit convert <in.map> <out.mpr>")
		if err == nil {
			err = runConvert(args[1], args[2])
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		fmt.Fprintln(os.Stderr)
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func needArgs(args []string, n int, usage string) error {
	if len(args) < n+1 {
		return fmt.Errorf("%s requires %d argument(s)\nUsage: %s", args[0], n, usage)
	}
	return nil
}

// loadCLIConfig reads the config if present; headless commands never create
// it. An invalid file is still read for whatever fields it sets.
func loadCLIConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg
	}
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	if cfg, err := config.LoadPartial(path); err == nil {
		return cfg
	}
	return config.Default()
}

func runDesktopApp() {
	cfgPath, err := filepath.Abs(*cfgFlag)
	if err != nil {
		logrus.Fatalf("Invalid config path: %v", err)
	}
	cfg, created, err := config.Ensure(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if created {
		logger.For("shell").WithField("path", cfgPath).Info("default config written")
	}

	app := NewApp(cfg, cfgPath)

	bg := &options.RGBA{R: 24, G: 26, B: 32, A: 255}
	if app.GetTheme() == "light" {
		bg = &options.RGBA{R: 240, G: 240, B: 242, A: 255}
	}

	err = wails.Run(&options.App{
		Title:     cfg.Window.Title,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		MinWidth:  640,
		MinHeight: 400,

		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: bg,

		Linux: &linux.Options{
			Icon: appIcon,
		},

		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind:       []any{app},
	})
	if err != nil {
		logrus.Fatal(err)
	}
}

func runInspect(path string) error {
	m, err := mapfile.Parse(path)
	if err != nil {
		return err
	}

	format := "structured (.mpr)"
	if !mapfile.IsStructured(path) {
		format = "legacy (.map, read-only)"
	}
	fmt.Printf("File:        %s\n", path)
	fmt.Printf("Format:      %s\n", format)
	fmt.Printf("Theater:     %s\n", m.Theater)
	fmt.Printf("Size:        %d x %d (%d tiles)\n", m.Width, m.Height, m.TileCount())
	fmt.Printf("Origin:      %d,%d\n", m.LocalOriginX, m.LocalOriginY)
	fmt.Printf("Waypoints:   %d (%d starting points)\n", len(m.Waypoints), len(m.StartingPoints()))
	fmt.Printf("Units:       %d\n", len(m.Units))
	fmt.Printf("Structures:  %d\n", len(m.Structures))

	owners := map[string]int{}
	for _, p := range append(append([]mapfile.MapPin{}, m.Units...), m.Structures...) {
		if p.Owner != "" {
			owners[p.Owner]++
		}
	}
	for owner, n := range owners {
		fmt.Printf("  %-12s %d\n", owner, n)
	}
	return nil
}

func runTree(cfg config.Config, args []string) error {
	fset := flag.NewFlagSet("tree", flag.ContinueOnError)
	depth := fset.Int("depth", cfg.Tree.MaxDepth, "Maximum folder depth")
	maxEntries := fset.Int("max", cfg.Tree.MaxEntries, "Maximum number of entries")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 1 {
		return errors.New("tree requires a directory\nUsage: isoedit tree [-depth N] [-max N] <directory>")
	}

	root, err := tree.Load(fset.Arg(0), tree.Options{
		MaxDepth:   *depth,
		MaxEntries: *maxEntries,
		HideExts:   cfg.HiddenExts(),
	})
	if err != nil {
		return err
	}
	printNode(root, 0)
	return nil
}

func printNode(n *tree.Node, indent int) {
	name := n.Name
	if n.Dir {
		name += "/"
	}
	if n.Truncated {
		name += " …"
	}
	fmt.Printf("%s%s\n", strings.Repeat("  ", indent), name)
	for _, c := range n.Children {
		printNode(c, indent+1)
	}
}

func runNew(cfg config.Config, dir string) error {
	m := project.New(project.OptionsFromConfig(cfg),
		project.WithLogger(logrus.NewEntry(logger.Log)))
	if err := m.Pump(project.CreateProject{Path: dir}); err != nil {
		return err
	}
	fmt.Printf("Project created: %s\n", m.State().RootPath)
	fmt.Printf("Default map:     %s\n", m.State().ActiveMap)
	return nil
}

func runConvert(in, out string) error {
	m, err := mapfile.Parse(in)
	if err != nil {
		return err
	}
	if err := mapfile.Save(out, m); err != nil {
		return err
	}
	fmt.Printf("Converted %s -> %s (%s, %dx%d)\n", in, out, m.Theater, m.Width, m.Height)
	return nil
}

func showUsage() {
	fmt.Println("isoedit - tile map editor")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  isoedit                          Run desktop application (default)")
	fmt.Println("  isoedit inspect <map-file>       Print a summary of a .map or .mpr file")
	fmt.Println("  isoedit tree <directory>         Print the explorer tree of a folder")
	fmt.Println("  isoedit new <directory>          Scaffold a project (maps/main.mpr)")
	fmt.Println("  isoedit convert <in> <out.mpr>   Convert a map to the structured format")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config   Editor config file (default isoedit.json)")
	fmt.Println("  -h        Show this help message")
	fmt.Println("  -version  Show version information")
	fmt.Println()
	fmt.Println("Tree options:")
	fmt.Println("  -depth N  Maximum folder depth")
	fmt.Println("  -max N    Maximum number of entries")
}
