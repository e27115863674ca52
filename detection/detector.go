// Package detection finds the moments animated bodies first come into contact. A scan runs in
// two passes: a coarse pass over whole frames in strictly ascending order that finds the frame
// of every contact onset, and, in precision mode, a refinement pass that bisects each onset's
// preceding frame interval and measures the bodies' velocities at the refined instant.
package detection

import (
	"context"
	"sort"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"go.viam.com/contactscan/collision"
	"go.viam.com/contactscan/logging"
	"go.viam.com/contactscan/scene"
)

// Detector scans an evaluator's frame range for collisions between two object groups.
type Detector struct {
	evaluator scene.Evaluator
	config    Config
	logger    logging.Logger
	clock     clock.Clock
	test      collision.ContactTest
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock replaces the clock MaxScanDuration is measured with.
func WithClock(c clock.Clock) Option {
	return func(d *Detector) {
		d.clock = c
	}
}

// NewDetector returns a detector for the evaluator. Knobs left at zero in cfg take their
// defaults; an invalid config is a ConfigurationError.
func NewDetector(evaluator scene.Evaluator, cfg Config, logger logging.Logger, opts ...Option) (*Detector, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate("detection"); err != nil {
		return nil, err
	}
	test, err := collision.NewContactTest(cfg.ContactPolicy, cfg.SurfaceBounces)
	if err != nil {
		return nil, NewConfigurationError(err)
	}
	d := &Detector{
		evaluator: evaluator,
		config:    cfg,
		logger:    logger,
		clock:     clock.New(),
		test:      test,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the configuration the detector runs with, defaults filled in.
func (d *Detector) Config() Config {
	return d.config
}

// Detect runs a scan and returns its events ordered by time.
//
// If ctx is cancelled or MaxScanDuration runs out, the scan stops at the next frame or onset and
// returns the events finalized so far together with the error. An EvaluatorFailureError returns
// no report.
func (d *Detector) Detect(ctx context.Context) (*Report, error) {
	startedAt := d.clock.Now()
	checkpoint := func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit := d.config.MaxScanDuration; limit > 0 && d.clock.Since(startedAt) > limit {
			return ErrScanDurationExceeded
		}
		return nil
	}

	targets, err := resolveGroup(ctx, d.evaluator, d.config.Targets)
	if err != nil {
		return nil, err
	}
	colliders, err := resolveGroup(ctx, d.evaluator, d.config.Colliders)
	if err != nil {
		return nil, err
	}
	pairs := buildPairs(targets, colliders, d.config.DefaultMargin, d.config.Epsilon)
	if len(pairs) == 0 {
		return nil, NewConfigurationError(errNoPairs)
	}
	objects := distinctObjects(pairs)

	start, end := d.evaluator.FrameRange()
	rate := d.evaluator.FrameRate()
	fps := rate.FPS()
	if fps <= 0 {
		return nil, NewConfigurationError(errBadFrameRate)
	}
	report := &Report{
		ScanID: uuid.New(),
		Metadata: Metadata{
			Epsilon:       d.config.Epsilon,
			FrameRate:     rate,
			FrameStart:    start,
			FrameEnd:      end,
			Targets:       d.config.Targets,
			Colliders:     d.config.Colliders,
			ContactPolicy: d.config.ContactPolicy,
			PrecisionMode: d.config.PrecisionMode,
			Substeps:      d.config.Substeps,
			StartedAt:     startedAt,
			Pairs:         len(pairs),
		},
	}
	logger := d.logger.Sublogger(report.ScanID.String()[:8])
	logger.Infow("starting coarse pass",
		"targets", len(targets), "colliders", len(colliders), "pairs", len(pairs),
		"frame_start", start, "frame_end", end, "policy", d.config.ContactPolicy)

	sampler := scene.NewSampler(d.evaluator)
	pass1 := &scanner{
		sampler:    sampler,
		test:       d.test,
		epsilon:    d.config.Epsilon,
		fps:        fps,
		start:      start,
		end:        end,
		logger:     logger,
		checkpoint: checkpoint,
	}
	onsets, frames, err := pass1.scan(ctx, pairs, objects)
	report.Metadata.FramesScanned = frames
	report.Metadata.CoarseOnsets = len(onsets)
	report.Metadata.CoarseDuration = d.clock.Since(startedAt)
	if err != nil {
		if IsEvaluatorFailure(err) {
			return nil, err
		}
		// only coarse events are final before the coarse pass completes
		if !d.config.PrecisionMode {
			report.Events = coarseEvents(onsets, fps)
		}
		logger.Warnw("scan aborted during coarse pass", "frames", frames, "error", err)
		return report, err
	}
	logger.Infow("coarse pass done", "frames", frames, "onsets", len(onsets), "duration", report.Metadata.CoarseDuration)

	if !d.config.PrecisionMode {
		report.Events = coarseEvents(onsets, fps)
		return report, nil
	}

	refineStart := d.clock.Now()
	pass2 := &refiner{
		sampler:  sampler,
		test:     d.test,
		epsilon:  d.config.Epsilon,
		substeps: d.config.Substeps,
		start:    start,
	}
	kinematics := &estimator{
		sampler:  sampler,
		epsilon:  d.config.Epsilon,
		fps:      fps,
		substeps: d.config.Substeps,
		start:    start,
	}
	events := make([]CollisionEvent, 0, len(onsets))
	for _, o := range onsets {
		if err := checkpoint(ctx); err != nil {
			report.Events = sortEvents(events)
			report.Metadata.RefineDuration = d.clock.Since(refineStart)
			logger.Warnw("scan aborted during refinement", "refined", len(events), "onsets", len(onsets), "error", err)
			return report, err
		}
		t, err := pass2.refine(ctx, o)
		if err != nil {
			return nil, err
		}
		event, err := kinematics.estimate(ctx, o, t)
		if err != nil {
			return nil, err
		}
		logger.CDebugw(ctx, "refined onset", "pair", o.pair.String(), "frame", o.frame, "time", float64(t), "speed", event.Speed)
		events = append(events, event)
	}
	report.Events = sortEvents(events)
	report.Metadata.RefineDuration = d.clock.Since(refineStart)
	logger.Infow("refinement done", "events", len(events), "duration", report.Metadata.RefineDuration)
	return report, nil
}

func coarseEvents(onsets []onset, fps float64) []CollisionEvent {
	events := make([]CollisionEvent, 0, len(onsets))
	for _, o := range onsets {
		events = append(events, coarseEvent(o, fps))
	}
	return sortEvents(events)
}

// sortEvents orders events by time, keeping discovery order for ties.
func sortEvents(events []CollisionEvent) []CollisionEvent {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })
	return events
}

