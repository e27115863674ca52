package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/contactscan/collision"
	"go.viam.com/contactscan/config"
	"go.viam.com/contactscan/detection"
	"go.viam.com/contactscan/export"
	"go.viam.com/contactscan/logging"
	"go.viam.com/contactscan/scene"
	"go.viam.com/contactscan/utils"
)

// DetectAction runs a scan and writes its events. With --watch the scan is repeated whenever the
// scene or config file changes, until interrupted.
func DetectAction(c *cli.Context) error {
	cfg, err := detectConfig(c)
	if err != nil {
		return err
	}
	logger, closeLogger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	if !c.Bool(detectFlagWatch) {
		return runScan(ctx, c, cfg, logger)
	}

	paths := []string{cfg.Scene}
	if path := c.String(generalFlagConfig); path != "" {
		paths = append(paths, path)
	}
	changes, err := watchFiles(ctx, paths, defaultWatchDelay, logger)
	if err != nil {
		return err
	}
	for {
		if err := runScan(ctx, c, cfg, logger); err != nil {
			logger.Errorw("scan failed", "error", err)
		}
		logger.Infow("waiting for changes", "files", paths)
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		}
		reloaded, err := detectConfig(c)
		if err != nil {
			logger.Errorw("keeping previous configuration", "error", err)
			continue
		}
		cfg = reloaded
	}
}

// runScan loads the scene, scans it and writes the events. Partial results are still written when
// the scan is interrupted.
func runScan(ctx context.Context, c *cli.Context, cfg *config.Config, logger logging.Logger) error {
	sc, err := scene.LoadFile(cfg.Scene)
	if err != nil {
		return err
	}
	detector, err := detection.NewDetector(sc, cfg.Detection, logger)
	if err != nil {
		return err
	}
	if timeout := c.Duration(detectFlagTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, scanErr := detector.Detect(ctx)
	if report == nil {
		return scanErr
	}
	if scanErr != nil {
		logger.Warnw("writing partial results", "events", len(report.Events), "error", scanErr)
	}
	logger.Infow("scan finished", "events", len(report.Events), "elapsed", report.Metadata.Elapsed())
	if err := writeEvents(c, cfg.Output, export.NewFile(report)); err != nil {
		return err
	}
	return scanErr
}

// detectConfig builds the scan config from the config file, if any, with flags applied on top.
func detectConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{Detection: detection.DefaultConfig()}
	if path := c.String(generalFlagConfig); path != "" {
		read, err := config.Read(path)
		if err != nil {
			return nil, err
		}
		cfg = read
	}
	if c.IsSet(detectFlagScene) {
		cfg.Scene = c.String(detectFlagScene)
	}
	if c.IsSet(detectFlagOut) {
		cfg.Output = c.String(detectFlagOut)
	}
	d := &cfg.Detection
	if c.IsSet(detectFlagPrecision) {
		d.PrecisionMode = c.Bool(detectFlagPrecision)
	}
	if c.IsSet(detectFlagSubsteps) {
		d.Substeps = c.Int(detectFlagSubsteps)
	}
	if c.IsSet(detectFlagPolicy) {
		d.ContactPolicy = collision.Policy(c.String(detectFlagPolicy))
	}
	if c.IsSet(detectFlagEpsilon) {
		d.Epsilon = c.Float64(detectFlagEpsilon)
	}
	if c.IsSet(detectFlagMargin) {
		d.DefaultMargin = c.Float64(detectFlagMargin)
	}
	if c.IsSet(detectFlagTargets) {
		d.Targets = c.String(detectFlagTargets)
	}
	if c.IsSet(detectFlagColliders) {
		d.Colliders = c.String(detectFlagColliders)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// newLogger logs to the error writer so events on stdout stay parseable, and also to --log-file
// when set. The returned func flushes and closes the log outputs.
func newLogger(c *cli.Context, cfg *config.Config) (logging.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	if c.Bool(generalFlagDebug) {
		level = logging.DEBUG
	}
	logger := logging.NewBlankLogger("contactscan")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	var file *logging.FileAppender
	if path := c.String(generalFlagLogFile); path != "" {
		file = logging.NewFileAppender(path)
		logger.AddAppender(file)
	}
	logger.SetLevel(level)
	logging.ReplaceGlobal(logger)
	return logger, func() {
		utils.UncheckedError(logger.Sync())
		if file != nil {
			utils.UncheckedError(file.Close())
		}
	}, nil
}

func writeEvents(c *cli.Context, output string, f *export.File) error {
	if c.Bool(detectFlagTable) {
		printf(c, "%s\n", f.String())
		if output == "" {
			return nil
		}
	}
	if output != "" {
		if err := export.WriteFile(output, f); err != nil {
			return err
		}
		printf(c, "wrote %d event(s) to %s\n", len(f.Events), output)
		return nil
	}
	return export.WriteJSON(c.App.Writer, f)
}

// SchemaAction prints the json schema of the event file.
func SchemaAction(c *cli.Context) error {
	data, err := json.MarshalIndent(export.Schema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c, "%s\n", data)
	return nil
}

// InspectAction prints an event file as a table.
func InspectAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("inspect takes exactly one event file")
	}
	f, err := export.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	md := f.Metadata
	if md.ScanID != "" {
		printf(c, "scan %s: frames %d-%d at %.3f fps, %s policy, precision %t\n",
			md.ScanID, md.FrameStart, md.FrameEnd, md.FPS, md.ContactPolicy, md.PrecisionMode)
	}
	printf(c, "%s\n", f.String())
	if bins := c.Int(inspectFlagHistogram); bins > 0 {
		return export.WriteSpeedHistogram(c.App.Writer, f, bins)
	}
	return nil
}

func printf(c *cli.Context, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(c.App.Writer, format, a...)
}
