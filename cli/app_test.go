package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/contactscan/detection"
	"go.viam.com/contactscan/export"
	"go.viam.com/contactscan/utils"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"contactscan"}, args...))
	return out.String(), errOut.String(), err
}

func TestDetectAction(t *testing.T) {
	scenePath := utils.ResolveFile("scene/data/drop.toml")

	t.Run("json to stdout", func(t *testing.T) {
		out, _, err := run(t, "detect", "--scene", scenePath, "--targets", "targets", "--colliders", "colliders")
		test.That(t, err, test.ShouldBeNil)
		f, err := export.ReadJSON(bytes.NewBufferString(out))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(f.Events), test.ShouldEqual, 1)
		test.That(t, f.Events[0].Target, test.ShouldEqual, "floor")
		test.That(t, f.Events[0].Collider, test.ShouldEqual, "ball")
		test.That(t, f.Events[0].Frame, test.ShouldEqual, 6.)
		test.That(t, f.Metadata.ContactPolicy, test.ShouldEqual, "overlap")
	})

	t.Run("config file with flag overrides", func(t *testing.T) {
		outPath := filepath.Join(t.TempDir(), "events.json")
		out, errOut, err := run(t, "--debug", "detect",
			"--config", utils.ResolveFile("config/data/scan.toml"),
			"--substeps", "4", "--out", outPath)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "wrote 1 event(s)")
		test.That(t, errOut, test.ShouldContainSubstring, "coarse pass done")

		f, err := export.ReadFile(outPath)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, f.Metadata.PrecisionMode, test.ShouldBeTrue)
		test.That(t, f.Metadata.Substeps, test.ShouldEqual, 4)
		test.That(t, len(f.Events), test.ShouldEqual, 1)
		test.That(t, f.Events[0].Frame, test.ShouldBeGreaterThan, 5)
		test.That(t, f.Events[0].Frame, test.ShouldBeLessThanOrEqualTo, 6)

		out, _, err = run(t, "inspect", outPath)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "precision true")
		test.That(t, out, test.ShouldContainSubstring, "ball")
	})

	t.Run("log file and histogram", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "scan.log")
		outPath := filepath.Join(dir, "events.json")
		_, _, err := run(t, "--log-file", logPath, "detect", "--scene", scenePath,
			"--targets", "targets", "--colliders", "colliders", "--out", outPath)
		test.That(t, err, test.ShouldBeNil)
		logged, err := os.ReadFile(logPath)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(logged), test.ShouldContainSubstring, "scan finished")

		out, _, err := run(t, "inspect", "--histogram", "3", outPath)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "1 event(s) at speed")
	})

	t.Run("table", func(t *testing.T) {
		out, _, err := run(t, "detect", "--scene", scenePath, "--targets", "targets", "--colliders", "colliders", "--table")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "COLLIDER")
		test.That(t, out, test.ShouldContainSubstring, "6.0000")
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, _, err := run(t, "detect", "--scene", scenePath, "--targets", "targets")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, detection.IsConfigurationError(err), test.ShouldBeTrue)

		_, _, err = run(t, "detect", "--scene", scenePath, "--targets", "targets", "--colliders", "nope")
		test.That(t, detection.IsConfigurationError(err), test.ShouldBeTrue)
	})
}

func TestSchemaAction(t *testing.T) {
	out, _, err := run(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "relative_velocity")
}

func TestInspectAction(t *testing.T) {
	_, _, err := run(t, "inspect")
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = run(t, "inspect", filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
