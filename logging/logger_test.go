package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type BasicStruct struct {
	X int
	y string
}

type StructWithStruct struct {
	x int
	Y BasicStruct
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])

	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 4 {
		return
	}

	// JSON encoding of maps can be unpredictable because map iteration order can change between
	// runs. Parse the output into maps and assert on map equality.
	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[4]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[4]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func newBufferLogger(level Level) (*fanoutLogger, *bytes.Buffer) {
	notStdout := &bytes.Buffer{}
	return newFanoutLogger("", level, true, NewWriterAppender(notStdout)), notStdout
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, notStdout := newBufferLogger(DEBUG)

	logger.Infow("scan started")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	INFO	logging/logger_test.go:67	scan started`)

	logger.Debugw("frame sampled", "frame", 3, "objects", []string{"ball", "floor"})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806Z	DEBUG	logging/logger_test.go:71	frame sampled	{"frame":3,"objects":["ball","floor"]}`)

	logger.Infow("scan finished", "key", "value")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806Z	INFO	logging/logger_test.go:75	scan finished	{"key":"value"}`)

	// unexported fields are not encoded
	logger.Warnw("StructWithStruct", "key", "val", "StructWithStruct", StructWithStruct{1, BasicStruct{2, "y"}})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129Z	WARN	logging/logger_test.go:80	StructWithStruct	{"StructWithStruct":{"Y":{"X":2}},"key":"val"}`)

	logger.Errorw("unpaired", "dangling")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129Z	ERROR	logging/logger_test.go:84	unpaired	{"dangling":"unpaired log key"}`)
}

func TestLevels(t *testing.T) {
	logger, notStdout := newBufferLogger(WARN)
	logger.Debugw("hidden")
	logger.Infow("hidden", "n", 1)
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Warnw("shown")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "shown")

	notStdout.Reset()
	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debugw("now shown")
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "now shown")
}

func TestContextDebug(t *testing.T) {
	logger, notStdout := newBufferLogger(INFO)
	ctx := context.Background()
	logger.CDebugw(ctx, "hidden")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	test.That(t, IsDebugMode(ctx), test.ShouldBeFalse)
	test.That(t, IsDebugMode(EnableDebugMode(ctx, "")), test.ShouldBeTrue)
	test.That(t, DebugName(EnableDebugMode(ctx, "")), test.ShouldHaveLength, 8)

	ctx = EnableDebugMode(ctx, "pair-7")
	test.That(t, DebugName(ctx), test.ShouldEqual, "pair-7")
	logger.CDebugw(ctx, "visible", "n", 2)
	test.That(t, notStdout.String(), test.ShouldContainSubstring, `"n":2`)
	test.That(t, notStdout.String(), test.ShouldContainSubstring, `"debug":"pair-7"`)

	// at debug level the entry needs no marker
	notStdout.Reset()
	logger.SetLevel(DEBUG)
	logger.CDebugw(ctx, "plain")
	test.That(t, notStdout.String(), test.ShouldNotContainSubstring, "pair-7")
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("scan").Sublogger("pass1")
	sub.Infow("frame", "index", 3)

	entries := observed.All()
	test.That(t, len(entries), test.ShouldEqual, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "scan.pass1")
	test.That(t, entries[0].ContextMap()["index"], test.ShouldEqual, int64(3))

	// sublogger levels are independent of the parent
	sub.SetLevel(ERROR)
	sub.Infow("dropped")
	logger.Infow("kept")
	test.That(t, observed.FilterMessage("dropped").Len(), test.ShouldEqual, 0)
	test.That(t, observed.FilterMessage("kept").Len(), test.ShouldEqual, 1)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}
	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"Warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	out, err := json.Marshal(ERROR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"error"`)
	test.That(t, ERROR.AsZap().String(), test.ShouldEqual, "error")
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.log")
	appender := NewFileAppender(path)
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)

	logger.Infow("scan finished", "events", 2)
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, appender.Close(), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "INFO\tfile")
	test.That(t, string(data), test.ShouldContainSubstring, `{"events":2}`)
}
