package perf

import (
	"encoding/json"
	"fmt"
)

// Frame is a recorded snapshot of one browsing context and its descendants.
// It implements Context so recorded pages can be replayed through the engine.
type Frame struct {
	Location    string        `json:"url" jsonschema:"description=Document URL of the context"`
	NavStart    float64       `json:"navigationStart,omitempty" jsonschema:"description=Time origin in Unix milliseconds"`
	Navigation  *Entry        `json:"navigation,omitempty" jsonschema:"description=Navigation timing entry for the document"`
	Timing      *LegacyTiming `json:"timing,omitempty" jsonschema:"description=Legacy epoch navigation timing"`
	Resources   []Entry       `json:"resources,omitempty" jsonschema:"description=Resource timing buffer in start-time order"`
	Frames      []*Frame      `json:"frames,omitempty" jsonschema:"description=Nested browsing contexts in document order"`
	CrossOrigin bool          `json:"crossOrigin,omitempty" jsonschema:"description=Reads of this context raise a security error"`
	Unsupported bool          `json:"unsupported,omitempty" jsonschema:"description=Context has no performance timeline"`
}

// ParseFrame decodes a JSON frame snapshot.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding frame snapshot: %w", err)
	}
	return &f, nil
}

// URL implements Context.
func (f *Frame) URL() string {
	return f.Location
}

// NavigationStart implements Context. It falls back to the legacy timing
// object when the snapshot carries no explicit time origin.
func (f *Frame) NavigationStart() (float64, error) {
	if f.CrossOrigin {
		return 0, ErrSecurity
	}
	if f.NavStart != 0 {
		return f.NavStart, nil
	}
	if f.Timing != nil {
		return f.Timing.NavigationStart, nil
	}
	return 0, nil
}

// SubContexts implements Context. Child frames stay enumerable even when
// the frame itself is cross-origin.
func (f *Frame) SubContexts() ([]Context, error) {
	out := make([]Context, 0, len(f.Frames))
	for _, child := range f.Frames {
		if child != nil {
			out = append(out, child)
		}
	}
	return out, nil
}

// EntriesByType implements Context.
func (f *Frame) EntriesByType(typ string) ([]Entry, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	switch typ {
	case TypeResource:
		out := make([]Entry, len(f.Resources))
		copy(out, f.Resources)
		return out, nil
	case TypeNavigation:
		if f.Navigation == nil {
			return nil, nil
		}
		return []Entry{*f.Navigation}, nil
	default:
		return nil, nil
	}
}

// EntriesByName implements Context.
func (f *Frame) EntriesByName(name string) ([]Entry, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range f.Resources {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out, nil
}

// LegacyTiming implements Context.
func (f *Frame) LegacyTiming() (*LegacyTiming, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	if f.Timing == nil {
		return nil, nil
	}
	t := *f.Timing
	return &t, nil
}

// ClearResourceTimings implements Clearer. Only this frame's buffer is
// cleared, matching how hosts scope the call to a single context.
func (f *Frame) ClearResourceTimings() {
	f.Resources = nil
}

// Stats returns the number of frames in the tree and the number of resource
// entries they hold, ignoring access restrictions.
func (f *Frame) Stats() (frames, entries int) {
	stack := []*Frame{f}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		frames++
		entries += len(cur.Resources)
		for _, child := range cur.Frames {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
	return frames, entries
}

func (f *Frame) check() error {
	if f.CrossOrigin {
		return ErrSecurity
	}
	if f.Unsupported {
		return ErrUnsupported
	}
	return nil
}
