package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Gradipoo/tui-jxl-converter/internal/config"
	"github.com/Gradipoo/tui-jxl-converter/internal/convert"
	"github.com/Gradipoo/tui-jxl-converter/internal/debuglog"
	"github.com/Gradipoo/tui-jxl-converter/internal/tui"
)

var (
	flagQuality   int
	flagEffort    int
	flagRecursive bool
	flagDelete    bool
	flagOutput    string
	flagDebugLog  bool
	flagConfig    string
)

var rootCmd = &cobra.Command{
	Use:   "mkjxl [directory]",
	Short: "mkjxl - batch-convert images to JPEG XL from a terminal UI",
	Long: "mkjxl browses a directory of images and converts the selected ones to JPEG XL\n" +
		"by driving the cjxl encoder in the background, with automatic output-name\n" +
		"conflict resolution and an optional ImageMagick sanitize-and-retry pass for\n" +
		"files the encoder rejects.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("directory not found at %q", dir)
		}
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		logger := debuglog.New(settings.LogFile)
		session := convert.NewSession(convert.LocateTools(), convert.ExecRunner{}, logger)
		defer session.Close()

		model := tui.New(absDir, settings, session, logger)
		_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	},
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		return settings, err
	}

	// Flags beat the config file, but only when actually set.
	if cmd.Flags().Changed("quality") {
		settings.Quality = flagQuality
	}
	if cmd.Flags().Changed("effort") {
		settings.Effort = flagEffort
	}
	if cmd.Flags().Changed("recursive") {
		settings.Recursive = flagRecursive
	}
	if cmd.Flags().Changed("delete-originals") {
		settings.DeleteOriginals = flagDelete
	}
	if cmd.Flags().Changed("output") {
		settings.OutputDir = flagOutput
	}
	if cmd.Flags().Changed("debug-log") {
		settings.DebugLog = flagDebugLog
	}
	if err := settings.Validate(); err != nil {
		return settings, err
	}

	if settings.OutputDir != "" {
		if abs, absErr := filepath.Abs(settings.OutputDir); absErr == nil {
			settings.OutputDir = abs
		}
	}
	return settings, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.Flags().IntVarP(&flagQuality, "quality", "q", 90, "lossy quality passed to cjxl (1-100)")
	rootCmd.Flags().IntVarP(&flagEffort, "effort", "e", 7, "encoder effort passed to cjxl (1-9)")
	rootCmd.Flags().BoolVarP(&flagRecursive, "recursive", "r", false, "scan the directory tree recursively")
	rootCmd.Flags().BoolVar(&flagDelete, "delete-originals", false, "remove source files after a successful conversion")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "converted", "output directory (empty means next to each source file)")
	rootCmd.Flags().BoolVar(&flagDebugLog, "debug-log", false, "start with debug logging enabled")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a TOML config file")
}
