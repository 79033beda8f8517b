package restiming

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

func TestEncode_ScriptEntry(t *testing.T) {
	e := perf.Entry{
		Name:          "https://example.com/app.js",
		InitiatorType: perf.InitiatorScript,
		StartTime:     100,
		ResponseEnd:   250,
		ResponseStart: 200,
		RequestStart:  180,
	}

	enc := Encode(e)
	assert.Equal(t, "32s,46,2s,28", enc)
	assert.False(t, strings.HasSuffix(enc, ","))

	code, fields, err := ParseFields(enc)
	require.NoError(t, err)
	assert.Equal(t, InitiatorCode(perf.InitiatorScript), code)
	assert.Equal(t, []int64{100, 150, 100, 80}, fields)
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		entry perf.Entry
		want  string
	}{
		{"empty entry", perf.Entry{}, "0"},
		{"unknown initiator", perf.Entry{InitiatorType: "beacon", StartTime: 1}, "01"},
		{"html", perf.Entry{InitiatorType: "html", ResponseEnd: 36}, "6,10"},
		{"rounds half up", perf.Entry{InitiatorType: "img", StartTime: 9.5, ResponseEnd: 20.4}, "1a,a"},
		{"gap fields kept", perf.Entry{InitiatorType: "css", StartTime: 1, ResponseEnd: 3, ConnectEnd: 2}, "41,2,,,1"},
		{"redirect last", perf.Entry{InitiatorType: "link", StartTime: 1, RedirectStart: 2}, "21,,,,,,,,,,1"},
		{"nan treated as absent", perf.Entry{InitiatorType: "img", StartTime: 10, ResponseEnd: math.NaN()}, "1a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.entry))
		})
	}
}

func TestTrimTiming(t *testing.T) {
	assert.Equal(t, int64(0), TrimTiming(0, 100))
	assert.Equal(t, int64(0), TrimTiming(0.4, 100))
	assert.Equal(t, int64(150), TrimTiming(250, 100))
	assert.Equal(t, int64(150), TrimTiming(250.2, 99.6))
	assert.Equal(t, int64(100), TrimTiming(100, 0))
}

func TestToBase36(t *testing.T) {
	assert.Equal(t, "", ToBase36(0))
	assert.Equal(t, "a", ToBase36(10))
	assert.Equal(t, "2s", ToBase36(100))
	assert.Equal(t, "rs", ToBase36(1000))
}

func TestInitiatorType(t *testing.T) {
	for name, code := range initiatorCodes {
		assert.Equal(t, name, InitiatorType(code))
	}
	assert.Equal(t, perf.InitiatorOther, InitiatorType(9))
}

func TestParseFields_Errors(t *testing.T) {
	_, _, err := ParseFields("")
	assert.Error(t, err)

	_, _, err = ParseFields("x1")
	assert.Error(t, err)

	_, _, err = ParseFields("3!!")
	assert.Error(t, err)
}

func TestDecodeTiming(t *testing.T) {
	got, err := DecodeTiming("32s,46,2s,28")
	require.NoError(t, err)
	assert.Equal(t, Timing{
		InitiatorType: perf.InitiatorScript,
		StartTime:     100,
		ResponseEnd:   250,
		ResponseStart: 200,
		RequestStart:  180,
	}, got)

	got, err = DecodeTiming("41,2,,,1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ResponseEnd)
	assert.Equal(t, int64(0), got.ResponseStart)
	assert.Equal(t, int64(2), got.ConnectEnd)
}

func TestDecodeTimings(t *testing.T) {
	got, err := DecodeTimings("1a|32s,46")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, perf.InitiatorImg, got[0].InitiatorType)
	assert.Equal(t, int64(10), got[0].StartTime)
	assert.Equal(t, int64(250), got[1].ResponseEnd)

	_, err = DecodeTimings("1a||3")
	assert.Error(t, err)
}
