// Package export writes and reads the structured event file a scan produces.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/contactscan/detection"
	"go.viam.com/contactscan/utils"
)

// Decimal places kept for each kind of value.
const (
	framePlaces  = 4
	secondPlaces = 6
	vectorPlaces = 4
	speedPlaces  = 4
)

// File is the event file.
type File struct {
	Metadata Metadata `json:"metadata"`
	Events   []Event  `json:"events"`
}

// Metadata describes the scan that produced the events.
type Metadata struct {
	ScanID        string    `json:"scan_id"`
	ScannedAt     time.Time `json:"scanned_at"`
	Epsilon       float64   `json:"epsilon" jsonschema:"minimum=0"`
	FPS           float64   `json:"fps" jsonschema:"exclusiveMinimum=0"`
	FrameStart    int       `json:"frame_start"`
	FrameEnd      int       `json:"frame_end"`
	Targets       string    `json:"targets_collection"`
	Colliders     string    `json:"colliders_collection"`
	ContactPolicy string    `json:"contact_policy" jsonschema:"enum=overlap,enum=surface_distance"`
	PrecisionMode bool      `json:"precision_mode"`
	Substeps      int       `json:"substeps"`
	// Speed is absent when there are no events.
	Speed *SpeedSummary `json:"speed,omitempty"`
}

// SpeedSummary summarizes the contact speeds of a file's events.
type SpeedSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Event is one collision event. Frame is the fractional frame of the onset, which detection calls
// Time, and Time is the same instant in seconds. Velocity is the target's, next to the
// collider's and the relative one.
type Event struct {
	Frame            float64    `json:"frame"`
	Time             float64    `json:"time"`
	Target           string     `json:"target"`
	Collider         string     `json:"collider"`
	Position         [3]float64 `json:"position"`
	Velocity         [3]float64 `json:"velocity"`
	ColliderVelocity [3]float64 `json:"collider_velocity"`
	RelativeVelocity [3]float64 `json:"relative_velocity"`
	Speed            float64    `json:"speed" jsonschema:"minimum=0"`
}

// UnmarshalJSON accepts the older active/passive names for target/collider.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		Active  string `json:"active"`
		Passive string `json:"passive"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.Target == "" {
		e.Target = aux.Active
	}
	if e.Collider == "" {
		e.Collider = aux.Passive
	}
	return nil
}

// NewFile converts a report into its file form, rounding every value.
func NewFile(report *detection.Report) *File {
	md := report.Metadata
	f := &File{
		Metadata: Metadata{
			ScanID:        report.ScanID.String(),
			ScannedAt:     md.StartedAt.UTC(),
			Epsilon:       md.Epsilon,
			FPS:           md.FrameRate.FPS(),
			FrameStart:    md.FrameStart,
			FrameEnd:      md.FrameEnd,
			Targets:       md.Targets,
			Colliders:     md.Colliders,
			ContactPolicy: string(md.ContactPolicy),
			PrecisionMode: md.PrecisionMode,
			Substeps:      md.Substeps,
		},
		Events: make([]Event, 0, len(report.Events)),
	}
	for _, e := range report.Events {
		f.Events = append(f.Events, Event{
			Frame:            utils.RoundTo(float64(e.Time), framePlaces),
			Time:             utils.RoundTo(e.WallClockTime, secondPlaces),
			Target:           e.TargetID,
			Collider:         e.ColliderID,
			Position:         vector(e.ContactPosition),
			Velocity:         vector(e.TargetVelocity),
			ColliderVelocity: vector(e.ColliderVelocity),
			RelativeVelocity: vector(e.RelativeVelocity),
			Speed:            utils.RoundTo(e.Speed, speedPlaces),
		})
	}
	f.Metadata.Speed = summarize(f.Events)
	return f
}

func vector(v r3.Vector) [3]float64 {
	v = utils.RoundVector(v, vectorPlaces)
	return [3]float64{v.X, v.Y, v.Z}
}

func summarize(events []Event) *SpeedSummary {
	if len(events) == 0 {
		return nil
	}
	speeds := make(stats.Float64Data, 0, len(events))
	for _, e := range events {
		speeds = append(speeds, e.Speed)
	}
	// the stats functions only fail on empty input
	lo, _ := speeds.Min()
	hi, _ := speeds.Max()
	mean, _ := speeds.Mean()
	median, _ := speeds.Median()
	return &SpeedSummary{
		Min:    lo,
		Max:    hi,
		Mean:   utils.RoundTo(mean, speedPlaces),
		Median: utils.RoundTo(median, speedPlaces),
	}
}

// WriteJSON writes the file as indented JSON.
func WriteJSON(w io.Writer, f *File) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// WriteFile writes the file to path.
func WriteFile(path string, f *File) (err error) {
	//nolint:gosec
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()
	return WriteJSON(out, f)
}

// ReadJSON reads an event file.
func ReadJSON(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "error decoding event file")
	}
	return &f, nil
}

// ReadFile reads an event file from path.
func ReadFile(path string) (*File, error) {
	//nolint:gosec
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		utils.UncheckedError(in.Close())
	}()
	f, err := ReadJSON(in)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return f, nil
}

// Schema returns the JSON schema of the event file.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&File{})
}

// String renders the events as a table.
func (f *File) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Frame", "Time (s)", "Target", "Collider", "Position", "Speed"})
	for i, e := range f.Events {
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.4f", e.Frame),
			fmt.Sprintf("%.6f", e.Time),
			e.Target,
			e.Collider,
			fmt.Sprintf("X:%.4f, Y:%.4f, Z:%.4f", e.Position[0], e.Position[1], e.Position[2]),
			fmt.Sprintf("%.4f", e.Speed),
		})
	}
	if s := f.Metadata.Speed; s != nil {
		t.AppendFooter(table.Row{"", "", "", "", "", "speed min/mean/max",
			fmt.Sprintf("%.4f / %.4f / %.4f", s.Min, s.Mean, s.Max)})
	}
	return t.Render()
}

// histogramWidth is the width in characters of the longest histogram bar.
const histogramWidth = 40

// WriteSpeedHistogram draws the distribution of impact speeds over the given number of bins.
func WriteSpeedHistogram(w io.Writer, f *File, bins int) error {
	if bins < 1 {
		return errors.Errorf("histogram needs at least one bin, got %d", bins)
	}
	s := f.Metadata.Speed
	if s == nil {
		s = summarize(f.Events)
	}
	switch {
	case s == nil:
		_, err := fmt.Fprintln(w, "no events")
		return err
	case s.Min == s.Max:
		// a single value has no spread to bin
		_, err := fmt.Fprintf(w, "%d event(s) at speed %.4f\n", len(f.Events), s.Min)
		return err
	}
	speeds := make([]float64, 0, len(f.Events))
	for _, e := range f.Events {
		speeds = append(speeds, e.Speed)
	}
	return histogram.Fprint(w, histogram.Hist(bins, speeds), histogram.Linear(histogramWidth))
}
