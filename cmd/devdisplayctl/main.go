// Package main provides the command-line interface for devdisplay.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unsafe"

	"devdisplay/internal/bridge"
	"devdisplay/internal/config"
	"devdisplay/internal/display"
	"devdisplay/internal/logging"
	"devdisplay/internal/output"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	hexArgs  bool
	jsonFmt  bool
	style    string
	sinkName []string

	// Build information
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "devdisplayctl",
	Short:   "Send device notifications through devdisplay",
	Long:    `devdisplayctl pushes a device identifier and message through the same path C callers of show_device_info use.`,
	Version: version,
}

var showCmd = &cobra.Command{
	Use:   "show <device-id> <message>",
	Short: "Display one notification",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("devdisplayctl %s\ncommit: %s\nbuilt at: %s\n", version, commit, date))

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $"+config.EnvPath+", then built-in defaults)")
	showCmd.Flags().BoolVar(&hexArgs, "hex", false, "arguments are hex-encoded raw bytes")
	showCmd.Flags().BoolVarP(&jsonFmt, "json", "j", false, "output in JSON format")
	showCmd.Flags().StringVar(&style, "style", "auto", "color console output: auto, always or never")
	showCmd.Flags().StringSliceVar(&sinkName, "sink", nil, "override configured sinks (console, json, desktop, discard)")

	showCmd.MarkFlagsMutuallyExclusive("json", "sink")

	rootCmd.AddCommand(showCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	switch style {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid --style %q (expected auto, always or never)", style)
	}

	// 1. Decode arguments into C-style buffers
	id, msg, err := cArgs(args[0], args[1], hexArgs)
	if err != nil {
		return err
	}

	// 2. Load Config and apply flag overrides
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	switch {
	case jsonFmt:
		cfg.Sinks = []string{"json"}
	case len(sinkName) > 0:
		cfg.Sinks = sinkName
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid sink: %w", err)
	}

	// 3. Build the sink
	out := cmd.OutOrStdout()
	var sink display.Sink
	if isPlainConsole(cfg) && colorEnabled(style, out) {
		sink = output.NewStyled(out, style == "always")
	} else if sink, err = bridge.SinkFor(cfg, lineWriter(cfg, cmd)); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	// 4. Hand over the buffers the way a C caller would
	b := bridge.New(sink, bridge.WithLogger(log), bridge.WithMaxLength(cfg.MaxLength))
	b.Notify(unsafe.Pointer(&id[0]), unsafe.Pointer(&msg[0]))
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return cfg.Encode(cmd.OutOrStdout())
}

// cArgs returns NUL-terminated copies of the two arguments.
func cArgs(deviceID, message string, fromHex bool) ([]byte, []byte, error) {
	id, msg := []byte(deviceID), []byte(message)
	if fromHex {
		var err error
		if id, err = hex.DecodeString(deviceID); err != nil {
			return nil, nil, fmt.Errorf("invalid hex device id: %w", err)
		}
		if msg, err = hex.DecodeString(message); err != nil {
			return nil, nil, fmt.Errorf("invalid hex message: %w", err)
		}
	}
	return append(id, 0), append(msg, 0), nil
}

func isPlainConsole(cfg *config.Config) bool {
	return len(cfg.Sinks) == 1 && cfg.Sinks[0] == "console" && cfg.Output == "stdout"
}

func lineWriter(cfg *config.Config, cmd *cobra.Command) io.Writer {
	if cfg.Output == "stderr" {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
