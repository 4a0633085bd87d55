// main.go
package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/textlog/internal/config"
	"github.com/petervdpas/textlog/internal/events"
	"github.com/petervdpas/textlog/internal/host"
	"github.com/petervdpas/textlog/internal/ui/tui"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	showHelp   = flag.Bool("h", false, "Show help")
	version    = flag.Bool("version", false, "Show version")
	configPath = flag.String("config", "", "Settings file (default: <user config dir>/text_log/settings.json)")
)

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
var appVersion = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("textlog v%s\n", appVersion)
		return
	}

	if *showHelp {
		showUsage()
		return
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, created, err := loadSettings(cfgPath)
	if err != nil {
		stdlog.Fatalf("Failed to load settings: %v", err)
	}

	args := flag.Args()

	// No arguments - run desktop UI
	if len(args) == 0 {
		if err := setupLogging(cfg.Log, ""); err != nil {
			stdlog.Fatalf("Logging: %v", err)
		}
		if created {
			log.Infof("created settings at %s", cfgPath)
		}
		runDesktopApp(cfgPath, cfg)
		return
	}

	command, rest := args[0], args[1:]

	if command == "tui" {
		// The terminal owns the screen, so logs go to a file.
		if err := setupLogging(cfg.Log, filepath.Join(filepath.Dir(cfgPath), "textlog.log")); err != nil {
			stdlog.Fatalf("Logging: %v", err)
		}
		runTerminal(cfgPath, cfg)
		return
	}

	if err := setupLogging(cfg.Log, ""); err != nil {
		stdlog.Fatalf("Logging: %v", err)
	}

	// One-shot commands do not need the watcher.
	cfg.Watch.Enabled = false
	ctx := context.Background()
	svc, err := host.New(ctx, host.Options{CfgPath: cfgPath, Cfg: cfg})
	if err != nil {
		stdlog.Fatalf("Failed to open journal: %v", err)
	}
	defer svc.Close()

	switch command {
	case "save":
		err = runSave(ctx, svc, rest, os.Stdin)
	case "today":
		err = runToday(ctx, svc)
	case "dir":
		err = runDir(ctx, svc, rest)
	case "days":
		err = runDays(ctx, svc)
	case "export":
		if len(rest) != 2 {
			fmt.Fprintln(os.Stderr, "Error: export needs a day and an output file")
			fmt.Fprintln(os.Stderr, "Usage: textlog export <YYYY-MM-DD> <out.html>")
			svc.Close()
			os.Exit(1)
		}
		err = runExport(ctx, svc, rest[0], rest[1])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		fmt.Fprintln(os.Stderr)
		showUsage()
		svc.Close()
		os.Exit(1)
	}

	if err != nil {
		svc.Close()
		stdlog.Fatalf("%s: %v", command, err)
	}
}

// loadSettings creates the settings file on first run. A corrupt file is
// kept as <path>.bad and replaced with defaults.
func loadSettings(cfgPath string) (config.Config, bool, error) {
	cfg, created, err := config.Ensure(cfgPath)
	if errors.Is(err, config.ErrInvalid) {
		stdlog.Printf("Settings %s are unusable, starting from defaults: %v", cfgPath, err)
		cfg, err = config.Reset(cfgPath)
	}
	return cfg, created, err
}

// setupLogging configures every named logger from the settings. A non-empty
// fallbackFile is used when log.file is unset and stderr must stay quiet.
func setupLogging(l config.Log, fallbackFile string) error {
	lc, err := logConfig(l, fallbackFile)
	if err != nil {
		return err
	}
	logging.SetupLogging(lc)
	return nil
}

func logConfig(l config.Log, fallbackFile string) (logging.Config, error) {
	level, err := logging.LevelFromString(strings.ToLower(l.Level))
	if err != nil {
		return logging.Config{}, fmt.Errorf("log.level: %w", err)
	}

	lc := logging.Config{Level: level, Stderr: true}
	switch strings.ToLower(l.Format) {
	case "json":
		lc.Format = logging.JSONOutput
	case "color":
		lc.Format = logging.ColorizedOutput
	default:
		lc.Format = logging.PlaintextOutput
	}

	file := l.File
	if file == "" {
		file = fallbackFile
	}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return logging.Config{}, fmt.Errorf("log dir: %w", err)
		}
		lc.File = file
		lc.Stderr = false
		// Colour codes do not belong in a file.
		if lc.Format == logging.ColorizedOutput {
			lc.Format = logging.PlaintextOutput
		}
	}
	return lc, nil
}

func runDesktopApp(cfgPath string, cfg config.Config) {
	app := NewApp(cfgPath, cfg)

	err := wails.Run(&options.App{
		Title:     "Text Log",
		Width:     cfg.UI.Width,
		Height:    cfg.UI.Height,
		MinWidth:  480,
		MinHeight: 400,

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind:       []any{app},
	})
	if err != nil {
		stdlog.Fatal(err)
	}
}

func runTerminal(cfgPath string, cfg config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	bus := events.NewBus()
	term := tui.New(tui.Options{Placeholder: cfg.Editor.Placeholder})

	svc, err := host.New(ctx, host.Options{
		CfgPath:  cfgPath,
		Cfg:      cfg,
		Picker:   term.Picker(),
		Notifier: bus,
	})
	if err != nil {
		stdlog.Fatalf("Failed to open journal: %v", err)
	}
	defer svc.Close()

	if err := term.Run(ctx, svc, bus); err != nil {
		svc.Close()
		stdlog.Fatalf("Terminal failed: %v", err)
	}
}

func runSave(ctx context.Context, svc *host.Service, words []string, stdin io.Reader) error {
	content := strings.Join(words, " ")
	if len(words) == 0 {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = string(b)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("nothing to save")
	}

	path, err := svc.SaveEntry(ctx, content)
	if err != nil {
		return err
	}
	fmt.Printf("Saved to %s\n", path)
	return nil
}

func runToday(ctx context.Context, svc *host.Service) error {
	text, err := svc.ReadCurrentFile(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		fmt.Println("No entries yet today. Start writing!")
		return nil
	}
	fmt.Print(text)
	return nil
}

func runDir(ctx context.Context, svc *host.Service, rest []string) error {
	if len(rest) > 0 {
		if err := svc.SetDirectory(ctx, rest[0]); err != nil {
			return err
		}
	}
	dir, err := svc.GetDirectory(ctx)
	if err != nil {
		return err
	}
	fmt.Println(dir)
	return nil
}

func runDays(ctx context.Context, svc *host.Service) error {
	days, err := svc.ListDays(ctx)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		fmt.Println("No journal days yet.")
		return nil
	}
	for _, d := range days {
		if d.Entries > 0 {
			fmt.Printf("%s  %3d entries  %s\n", d.Day, d.Entries, d.Path)
		} else {
			fmt.Printf("%s  %3s          %s\n", d.Day, "-", d.Path)
		}
	}
	return nil
}

func runExport(ctx context.Context, svc *host.Service, day, out string) error {
	page, err := svc.ExportDay(ctx, day)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, page, 0o644); err != nil {
		return err
	}
	fmt.Printf("Exported %s to %s\n", day, out)
	return nil
}

func showUsage() {
	fmt.Println("textlog - a plain-text daily journal")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  textlog [options]                 Run desktop application (default)")
	fmt.Println("  textlog [options] <command> ...   Run a command")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  tui")
	fmt.Println("        Run the journal in the terminal")
	fmt.Println()
	fmt.Println("  save [text...]")
	fmt.Println("        Append an entry to today's file (reads stdin when no text is given)")
	fmt.Println()
	fmt.Println("  today")
	fmt.Println("        Print today's entries")
	fmt.Println()
	fmt.Println("  dir [path]")
	fmt.Println("        Print the journal directory, or change it to path")
	fmt.Println()
	fmt.Println("  days")
	fmt.Println("        List journal days, newest first")
	fmt.Println()
	fmt.Println("  export <YYYY-MM-DD> <out.html>")
	fmt.Println("        Render one day as a standalone HTML page")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config <path>  Settings file")
	fmt.Println("  -h              Show this help message")
	fmt.Println("  -version        Show version information")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Run desktop app")
	fmt.Println("  textlog")
	fmt.Println()
	fmt.Println("  # Quick entry from a shell")
	fmt.Println("  echo \"Shipped the release\" | textlog save")
}
