package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseLevel(t *testing.T) {
	c := qt.New(t)

	c.Assert(ParseLevel("DEBUG"), qt.Equals, DebugLevel)
	c.Assert(ParseLevel(" warn "), qt.Equals, WarnLevel)
	c.Assert(ParseLevel("disabled"), qt.Equals, DisabledLevel)
	c.Assert(ParseLevel("verbose"), qt.Equals, InfoLevel)
}

func TestNewWritesJSONAtLevel(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	lgr := New(Config{Level: WarnLevel, Output: &buf})

	lgr.Info().Msg("dropped")
	c.Assert(buf.Len(), qt.Equals, 0)

	lgr.Error().Str("courseId", "c1").Msg("Course not found")
	var entry map[string]interface{}
	c.Assert(json.Unmarshal(buf.Bytes(), &entry), qt.IsNil)
	c.Assert(entry["level"], qt.Equals, "error")
	c.Assert(entry["courseId"], qt.Equals, "c1")
	c.Assert(entry["message"], qt.Equals, "Course not found")
}
