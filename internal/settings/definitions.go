package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"streamdash/internal/protocol"
)

// Persisted setting keys. They double as the field names the host uses in
// settings commands and snapshots.
const (
	KeyEncoder      = "encoder"
	KeyFramerate    = "videoFramerate"
	KeyBitrate      = "videoBitRate"
	KeyBufferSize   = "videoBufferSize"
	KeyCRF          = "videoCRF"
	KeyFullColor    = "h264_fullcolor"
	KeyScalingDPI   = "scalingDPI"
	KeyScaleLocally = "scaleLocallyManual"
	KeyHiDPI        = "hidpiEnabled"
	KeyTheme        = "theme"
)

// Value domains.
var (
	Encoders    = []string{"x264enc", "nvh264enc", "vah264enc", "openh264enc"}
	Framerates  = []int{8, 12, 15, 24, 25, 30, 48, 50, 60, 90, 100, 120, 144}
	Bitrates    = []int{1000, 2000, 4000, 8000, 10000, 12000, 14000, 16000, 18000, 20000, 25000, 30000, 35000, 40000, 45000, 50000, 60000, 70000, 80000, 90000, 100000}
	CRFs        = []int{50, 45, 40, 35, 30, 25, 20, 15, 10, 5, 1}
	ScalingDPIs = []int{96, 120, 144, 168, 192, 216, 240, 264, 288}
	Themes      = []string{"dark", "light"}
)

const (
	MinBufferSize = 0
	MaxBufferSize = 15
)

// Kind is the value type of a setting.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Definition describes one setting: its key, type, domain, default and how
// a change is reported to the host.
type Definition struct {
	Key     string
	Kind    Kind
	Default any

	// Exactly one of Strings, Ints or the Min/Max range constrains
	// non-bool values.
	Strings []string
	Ints    []int
	Min     int
	Max     int

	// command builds the host command for a new value. nil means the
	// setting is local only.
	command func(v any) protocol.Command
}

func settingsCommand(key string) func(any) protocol.Command {
	return func(v any) protocol.Command { return protocol.Settings(key, v) }
}

var definitions = []Definition{
	{Key: KeyEncoder, Kind: KindString, Default: "x264enc", Strings: Encoders, command: settingsCommand(KeyEncoder)},
	{Key: KeyFramerate, Kind: KindInt, Default: 60, Ints: Framerates, command: settingsCommand(KeyFramerate)},
	{Key: KeyBitrate, Kind: KindInt, Default: 8000, Ints: Bitrates, command: settingsCommand(KeyBitrate)},
	{Key: KeyBufferSize, Kind: KindInt, Default: 0, Min: MinBufferSize, Max: MaxBufferSize, command: settingsCommand(KeyBufferSize)},
	{Key: KeyCRF, Kind: KindInt, Default: 25, Ints: CRFs, command: settingsCommand(KeyCRF)},
	{Key: KeyFullColor, Kind: KindBool, Default: false, command: settingsCommand(KeyFullColor)},
	{Key: KeyScalingDPI, Kind: KindInt, Default: 96, Ints: ScalingDPIs, command: settingsCommand(KeyScalingDPI)},
	{Key: KeyScaleLocally, Kind: KindBool, Default: true, command: func(v any) protocol.Command {
		return protocol.SetScaleLocally(v.(bool))
	}},
	// The host's flag is the inverse: CSS scaling is used when HiDPI is off.
	{Key: KeyHiDPI, Kind: KindBool, Default: true, command: func(v any) protocol.Command {
		return protocol.SetUseCSSScaling(!v.(bool))
	}},
	{Key: KeyTheme, Kind: KindString, Default: "dark", Strings: Themes},
}

// Definitions returns every known setting in display order.
func Definitions() []Definition {
	return slices.Clone(definitions)
}

// Lookup returns the definition for key.
func Lookup(key string) (Definition, bool) {
	for _, d := range definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Keys returns the known setting keys in display order.
func Keys() []string {
	keys := make([]string, len(definitions))
	for i, d := range definitions {
		keys[i] = d.Key
	}
	return keys
}

// SendsCommand reports whether changes to this setting are sent to the host.
func (d Definition) SendsCommand() bool { return d.command != nil }

// Options returns the ordered domain of an enumerated setting as strings,
// or nil for ranges and booleans.
func (d Definition) Options() []string {
	switch {
	case d.Strings != nil:
		return slices.Clone(d.Strings)
	case d.Ints != nil:
		out := make([]string, len(d.Ints))
		for i, v := range d.Ints {
			out[i] = strconv.Itoa(v)
		}
		return out
	}
	return nil
}

// Normalize coerces v to the setting's Go type and checks it against the
// domain. Integral floats (as produced by encoding/json) and their string
// forms are accepted for int settings; "true"/"false" for booleans.
func (d Definition) Normalize(v any) (any, error) {
	switch d.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		if !slices.Contains(d.Strings, s) {
			return nil, fmt.Errorf("%q is not one of %v", s, d.Strings)
		}
		return s, nil

	case KindInt:
		n, err := toInt(v)
		if err != nil {
			return nil, err
		}
		if d.Ints != nil {
			if !slices.Contains(d.Ints, n) {
				return nil, fmt.Errorf("%d is not one of %v", n, d.Ints)
			}
		} else if n < d.Min || n > d.Max {
			return nil, fmt.Errorf("%d is outside %d..%d", n, d.Min, d.Max)
		}
		return n, nil

	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("%q is not a boolean", b)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("expected a boolean, got %T", v)
	}
	return nil, fmt.Errorf("unknown kind %v", d.Kind)
}

// Parse decodes a persisted string into a normalized value.
func (d Definition) Parse(raw string) (any, error) {
	return d.Normalize(raw)
}

// ParseJSON decodes a raw JSON field from a host snapshot.
func (d Definition) ParseJSON(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.Key, err)
	}
	return d.Normalize(v)
}

// Format renders a normalized value in its persisted form.
func (d Definition) Format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n.String())
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
