package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "waygrab",
		Short: "Screenshot tool for wlroots based compositors",
		Long: `waygrab captures display output contents via the wlr-screencopy
protocol and writes them as png, jpg or ppm images.

Outputs are discovered through the compositor's registry; a capture can
target a single output by name, a logical region, or every output.`,
		Example: `  # Capture all outputs
  waygrab

  # Capture one output, cursor included
  waygrab --output DP-1 --cursor

  # Capture a region selected interactively with slurp
  waygrab --select

  # Capture a known region and pipe the png to wl-copy
  waygrab --slurp "100,100 800x600" --stdout | wl-copy`,
		RunE: runCapture,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/waygrab/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.Flags().BoolP("cursor", "c", false, "composite the cursor onto the capture")
	rootCmd.Flags().StringP("output", "o", "", "capture a specific output by name")
	rootCmd.Flags().StringP("slurp", "s", "", "capture a region given as \"x,y WxH\"")
	rootCmd.Flags().Bool("select", false, "select the capture region interactively with slurp")
	rootCmd.Flags().StringP("file", "f", "", "write the image to a specific path")
	rootCmd.Flags().Bool("stdout", false, "write the image to standard output")
	rootCmd.Flags().StringP("extension", "e", "", "image format (png, jpg, ppm)")
	rootCmd.Flags().Int("jpeg-quality", 0, "jpeg quality in [1,100]")
	rootCmd.Flags().String("png-compression", "", "png compression level (fast, best, default, none)")

	rootCmd.MarkFlagsMutuallyExclusive("output", "slurp", "select")
	rootCmd.MarkFlagsMutuallyExclusive("file", "stdout")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("cursor", rootCmd.Flags().Lookup("cursor"))
	_ = viper.BindPFlag("extension", rootCmd.Flags().Lookup("extension"))
	_ = viper.BindPFlag("jpeg_quality", rootCmd.Flags().Lookup("jpeg-quality"))
	_ = viper.BindPFlag("png_compression", rootCmd.Flags().Lookup("png-compression"))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path given on the command line.
func GetConfigFile() string {
	return cfgFile
}
