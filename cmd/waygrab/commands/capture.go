package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/waygrab/waygrab/internal/capture"
	"github.com/waygrab/waygrab/internal/config"
	"github.com/waygrab/waygrab/internal/encode"
	"github.com/waygrab/waygrab/internal/logger"
	"github.com/waygrab/waygrab/internal/notify"
	"github.com/waygrab/waygrab/internal/region"
)

// Waiting forever on a wedged compositor makes a CLI unusable; interactive
// captures get a generous fixed budget instead.
var captureWait = capture.WaitOptions{Timeout: 10 * time.Second}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	if viper.IsSet("log_level") && viper.GetString("log_level") != "" {
		cfg.LogLevel = viper.GetString("log_level")
	}
	logger.Init(cfg.LogLevel, true)
	log := logger.WithComponent("cli")

	if v, _ := cmd.Flags().GetString("extension"); v != "" {
		cfg.Extension = v
	}
	if v, _ := cmd.Flags().GetBool("cursor"); v {
		cfg.Cursor = true
	}
	if v, _ := cmd.Flags().GetInt("jpeg-quality"); v > 0 {
		cfg.JPEGQuality = v
	}
	if v, _ := cmd.Flags().GetString("png-compression"); v != "" {
		cfg.PNGCompression = v
	}
	format, err := encode.ParseFormat(cfg.Extension)
	if err != nil {
		return err
	}
	compression, err := encode.ParseCompression(cfg.PNGCompression)
	if err != nil {
		return err
	}

	client, err := capture.Connect("", captureWait)
	if err != nil {
		return err
	}
	defer client.Close()

	opts := capture.CaptureOptions{
		Cursor: cfg.Cursor,
		Wait:   captureWait,
	}

	outputName, _ := cmd.Flags().GetString("output")
	slurpGeometry, _ := cmd.Flags().GetString("slurp")
	interactive, _ := cmd.Flags().GetBool("select")
	toStdout, _ := cmd.Flags().GetBool("stdout")
	filePath, _ := cmd.Flags().GetString("file")

	var (
		results []*capture.Result
		outputs []*capture.Output
	)
	switch {
	case interactive:
		geometry, err := selectRegion(client)
		if err != nil {
			return err
		}
		reg, err := region.Parse(geometry)
		if err != nil {
			return err
		}
		results, outputs, err = client.CaptureRegion(reg, opts)
		if err != nil {
			return err
		}
	case slurpGeometry != "":
		reg, err := region.Parse(slurpGeometry)
		if err != nil {
			return err
		}
		results, outputs, err = client.CaptureRegion(reg, opts)
		if err != nil {
			return err
		}
	case outputName != "":
		out, err := client.OutputByName(outputName)
		if err != nil {
			return err
		}
		res, err := client.CaptureOutput(out, opts)
		if err != nil {
			return err
		}
		results, outputs = []*capture.Result{res}, []*capture.Output{out}
	default:
		for _, out := range client.Outputs() {
			res, err := client.CaptureOutput(out, opts)
			if err != nil {
				for _, r := range results {
					_ = r.Close()
				}
				return fmt.Errorf("failed to capture output %q: %w", out.Name, err)
			}
			results = append(results, res)
			outputs = append(outputs, out)
		}
	}
	defer func() {
		for _, r := range results {
			_ = r.Close()
		}
	}()
	if len(results) == 0 {
		return fmt.Errorf("no outputs to capture")
	}

	encOpts := encode.Options{JPEGQuality: cfg.JPEGQuality, PNGCompression: compression}

	if toStdout {
		if len(results) > 1 {
			return fmt.Errorf("refusing to write %d captures to stdout; use --output or a region", len(results))
		}
		return encode.Encode(os.Stdout, results[0], format, encOpts)
	}

	var written []string
	for i, res := range results {
		path := targetPath(cfg, filePath, outputs[i].Name, len(results) > 1)
		if err := writeResult(path, res, format, encOpts); err != nil {
			return err
		}
		log.Info().Str("path", path).Str("output", outputs[i].Name).Msg("Capture written")
		written = append(written, path)
	}

	if cfg.Notify {
		if err := notify.Send("Screenshot saved", strings.Join(written, "\n"), written[0]); err != nil {
			log.Warn().Err(err).Msg("Could not send notification")
		}
	}
	return nil
}

// selectRegion covers every output with a transparent overlay, then runs
// slurp and returns the selected geometry.
func selectRegion(client *capture.Client) (string, error) {
	overlay, err := client.CreateOverlays(client.Outputs())
	if err != nil {
		return "", err
	}
	defer overlay.Close()
	if err := overlay.WaitConfigured(captureWait); err != nil {
		return "", err
	}

	out, err := exec.Command("slurp").Output()
	if err != nil {
		return "", fmt.Errorf("failed to run slurp: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// targetPath picks the output file name: an explicit --file wins, otherwise
// a timestamped name in the configured directory. With several captures the
// output name is appended so files do not collide.
func targetPath(cfg *config.Config, explicit, outputName string, multiple bool) string {
	if explicit != "" && !multiple {
		return explicit
	}
	name := time.Now().Format(cfg.FilenameFormat)
	if multiple {
		name = name + "-" + outputName
	}
	name = name + "." + strings.TrimPrefix(cfg.Extension, ".")
	if explicit != "" {
		return filepath.Join(filepath.Dir(explicit), name)
	}
	return filepath.Join(cfg.OutputDir, name)
}

func writeResult(path string, res *capture.Result, format encode.Format, opts encode.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := encode.Encode(f, res, format, opts); err != nil {
		return err
	}
	return f.Sync()
}
