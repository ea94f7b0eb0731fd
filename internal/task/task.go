// Package task reads and writes the JSON task document: a reusable record
// of one run's parameters. Resolution is layered: explicit command-line
// values override the document field by field, and defaults fill whatever
// neither supplies.
package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"glitchcut/internal/splitplan"
)

// Split is an explicit split point as stored in a task document.
type Split struct {
	Time    float64 `json:"time"`
	DelayMS int     `json:"delay_ms"`
}

// Range is a search range as stored in a task document.
type Range struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	DelayMS int     `json:"delay_ms"`
}

// Document is the on-disk task file. Pointer fields distinguish "absent"
// from an explicit zero so layering can tell the two apart.
type Document struct {
	Input            string   `json:"input,omitempty"`
	Output           string   `json:"output,omitempty"`
	Stream           *int     `json:"stream,omitempty"`
	InitialDelayMS   *int     `json:"initial_delay,omitempty"`
	Splits           []Split  `json:"splits,omitempty"`
	SplitRanges      []Range  `json:"split_ranges,omitempty"`
	Bitrate          string   `json:"bitrate,omitempty"`
	SilenceThreshold *float64 `json:"silence_threshold,omitempty"`
	FitLength        *bool    `json:"fit_length,omitempty"`
}

// Load reads a task document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	return &doc, nil
}

// Save writes the document as indented JSON.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}

// DefaultPath derives a task file path from the input media path by swapping
// the extension for .json.
func DefaultPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".json"
}

// Overrides carries values set explicitly on the command line. Nil pointers
// and empty slices mean "not given".
type Overrides struct {
	Input            *string
	Output           *string
	Stream           *int
	InitialDelayMS   *int
	Splits           []Split
	SplitRanges      []Range
	Bitrate          *string
	SilenceThreshold *float64
	FitLength        *bool
}

// Defaults supplies values when neither overrides nor the document set a
// field.
type Defaults struct {
	SilenceThresholdLUFS float64
	FitLength            bool
}

// Options is the fully resolved parameter set a run executes with. Bitrate
// stays empty when it should be auto-detected.
type Options struct {
	Input                string
	Output               string
	Stream               int
	InitialDelayMS       int
	Splits               []Split
	SplitRanges          []Range
	Bitrate              string
	SilenceThresholdLUFS float64
	FitLength            bool
}

// Resolve merges overrides onto doc (either may be nil) with defaults
// underneath, then validates the result. Precedence per field is override,
// then document, then default.
func Resolve(doc *Document, ov Overrides, defs Defaults) (Options, error) {
	if doc == nil {
		doc = &Document{}
	}

	opts := Options{
		Stream:               -1,
		SilenceThresholdLUFS: defs.SilenceThresholdLUFS,
		FitLength:            defs.FitLength,
	}

	opts.Input = pick(ov.Input, doc.Input)
	opts.Output = pick(ov.Output, doc.Output)
	opts.Bitrate = pick(ov.Bitrate, doc.Bitrate)

	if ov.Stream != nil {
		opts.Stream = *ov.Stream
	} else if doc.Stream != nil {
		opts.Stream = *doc.Stream
	}
	if ov.InitialDelayMS != nil {
		opts.InitialDelayMS = *ov.InitialDelayMS
	} else if doc.InitialDelayMS != nil {
		opts.InitialDelayMS = *doc.InitialDelayMS
	}
	if ov.SilenceThreshold != nil {
		opts.SilenceThresholdLUFS = *ov.SilenceThreshold
	} else if doc.SilenceThreshold != nil {
		opts.SilenceThresholdLUFS = *doc.SilenceThreshold
	}
	if ov.FitLength != nil {
		opts.FitLength = *ov.FitLength
	} else if doc.FitLength != nil {
		opts.FitLength = *doc.FitLength
	}

	opts.Splits = doc.Splits
	if len(ov.Splits) > 0 {
		opts.Splits = ov.Splits
	}
	opts.SplitRanges = doc.SplitRanges
	if len(ov.SplitRanges) > 0 {
		opts.SplitRanges = ov.SplitRanges
	}

	if err := opts.validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func pick(override *string, base string) string {
	if override != nil {
		return *override
	}
	return base
}

func (o *Options) validate() error {
	if o.Input == "" {
		return errors.New("input file is required")
	}
	if o.Output == "" {
		return errors.New("output file is required")
	}
	if o.Input == o.Output {
		return errors.New("input and output file cannot be the same")
	}
	if o.Stream < 0 {
		return errors.New("stream index is required")
	}
	return nil
}

// Document builds the persistable form of resolved options so a confirmed
// plan can be replayed later.
func (o *Options) Document() *Document {
	doc := &Document{
		Input:            o.Input,
		Output:           o.Output,
		Stream:           intPtr(o.Stream),
		InitialDelayMS:   intPtr(o.InitialDelayMS),
		Splits:           o.Splits,
		SplitRanges:      o.SplitRanges,
		Bitrate:          o.Bitrate,
		SilenceThreshold: floatPtr(o.SilenceThresholdLUFS),
		FitLength:        boolPtr(o.FitLength),
	}
	return doc
}

// SplitPoints converts the explicit splits to resolver input.
func (o *Options) SplitPoints() []splitplan.Point {
	points := make([]splitplan.Point, 0, len(o.Splits))
	for _, s := range o.Splits {
		points = append(points, splitplan.Point{Time: s.Time, DelayMS: s.DelayMS})
	}
	return points
}

// Ranges converts the search ranges to resolver input.
func (o *Options) Ranges() []splitplan.Range {
	ranges := make([]splitplan.Range, 0, len(o.SplitRanges))
	for _, r := range o.SplitRanges {
		ranges = append(ranges, splitplan.Range{Start: r.Start, End: r.End, DelayMS: r.DelayMS})
	}
	return ranges
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
