package input

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidScript = errors.New("invalid input script")

// Segment holds a steering value for a number of frames.
type Segment struct {
	Frames   int64   `json:"frames" yaml:"frames"`
	Rotation float64 `json:"rotation" yaml:"rotation"`
}

// Script replays steering segments in order. Frames past the end sample as
// no input unless Loop is set.
type Script struct {
	Segments []Segment `json:"segments" yaml:"segments"`
	Loop     bool      `json:"loop,omitempty" yaml:"loop,omitempty"`

	total int64
}

// LoadScriptYAML decodes a script from r.
func LoadScriptYAML(r io.Reader) (*Script, error) {
	var s Script
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a YAML script file.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadScriptYAML(f)
}

// Validate checks segment lengths and steering range and caches the
// script length.
func (s *Script) Validate() error {
	s.total = 0
	for i, seg := range s.Segments {
		if seg.Frames <= 0 {
			return fmt.Errorf("%w: segment %d has %d frames", ErrInvalidScript, i, seg.Frames)
		}
		if seg.Rotation < -1 || seg.Rotation > 1 {
			return fmt.Errorf("%w: segment %d rotation %v outside [-1, 1]", ErrInvalidScript, i, seg.Rotation)
		}
		s.total += seg.Frames
	}
	return nil
}

// Len returns the number of frames covered by one pass of the script.
func (s *Script) Len() int64 { return s.total }

func (s *Script) Sample(frame int64) Snapshot {
	if s.total == 0 || frame < 0 {
		return Snapshot{}
	}
	if frame >= s.total {
		if !s.Loop {
			return Snapshot{}
		}
		frame %= s.total
	}
	for _, seg := range s.Segments {
		if frame < seg.Frames {
			return Snapshot{Rotation: seg.Rotation}
		}
		frame -= seg.Frames
	}
	return Snapshot{}
}
