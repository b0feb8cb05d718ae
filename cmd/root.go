package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Manu343726/x86sim/cmd/sim"
	"github.com/Manu343726/x86sim/cmd/tools"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
	logFile  string
)

// rootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "x86sim",
	Short: "A step-wise interpreter for x86-64 assembly",
	Long: `x86sim interprets a textual subset of x86-64 assembly one instruction at a
time, forward and backward, exposing the full machine state (registers, flags,
simulated stack, call stack, captured output) after every step.

It accepts both the Intel-style and the AT&T (GAS) operand syntax. Malformed
input never aborts a session: unparseable lines and unsupported opcodes degrade
to observable no-ops.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(sim.ExecCmd, sim.DebugCmd, sim.TuiCmd, tools.ToolsCmd)
	cobra.OnInitialize(initConfig, initLogging)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.x86sim.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs as JSON to this file")
	RootCmd.PersistentFlags().String("dialect", "", "assembly dialect: auto, intel or att")

	viper.SetDefault("dialect", "auto")
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("step_budget", 10000)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".x86sim" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".x86sim")
	}

	viper.SetEnvPrefix("x86sim")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if flag := RootCmd.PersistentFlags().Lookup("dialect"); flag.Changed {
		viper.Set("dialect", flag.Value.String())
	}
	if logLevel != "" {
		viper.Set("log_level", logLevel)
	}
}

// initLogging wires the default slog logger: a text handler on stderr, plus a
// JSON handler when a log file is configured, fanned out together.
func initLogging() {
	level := parseLogLevel(viper.GetString("log_level"))

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open log file %s: %v\n", logFile, err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))
}

func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
