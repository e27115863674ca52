package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/contactscan/collision"
	"go.viam.com/contactscan/detection"
	"go.viam.com/contactscan/logging"
	"go.viam.com/contactscan/utils"
)

func TestRead(t *testing.T) {
	t.Run("toml", func(t *testing.T) {
		cfg, err := Read(utils.ResolveFile("config/data/scan.toml"))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Validate(), test.ShouldBeNil)
		test.That(t, cfg.Scene, test.ShouldEqual, utils.ResolveFile("scene/data/drop.toml"))
		test.That(t, cfg.Output, test.ShouldEqual, utils.ResolveFile("config/data/events.json"))

		level, err := cfg.Level()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, logging.DEBUG)

		d := cfg.Detection
		test.That(t, d.PrecisionMode, test.ShouldBeTrue)
		test.That(t, d.Substeps, test.ShouldEqual, 16)
		test.That(t, d.ContactPolicy, test.ShouldEqual, collision.PolicyOverlap)
		test.That(t, d.Epsilon, test.ShouldEqual, detection.DefaultEpsilon)
		test.That(t, d.MaxScanDuration, test.ShouldEqual, time.Minute)
	})

	t.Run("json", func(t *testing.T) {
		cfg, err := Read(utils.ResolveFile("config/data/scan.json"))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Validate(), test.ShouldBeNil)
		test.That(t, cfg.Scene, test.ShouldEqual, "/tmp/scene.json")
		test.That(t, cfg.Output, test.ShouldEqual, "")
		level, err := cfg.Level()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, logging.INFO)

		d := cfg.Detection
		test.That(t, d.ContactPolicy, test.ShouldEqual, collision.PolicySurfaceDistance)
		test.That(t, d.SurfaceBounces, test.ShouldEqual, 4)
		test.That(t, d.DefaultMargin, test.ShouldEqual, 0.01)
		test.That(t, d.Substeps, test.ShouldEqual, detection.DefaultSubsteps)
	})

	t.Run("environment variables", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("CONTACTSCAN_SCENE_DIR", "/scenes")
		t.Setenv("CONTACTSCAN_COLLIDERS", "balls")
		path := filepath.Join(dir, "scan.toml")
		contents := "scene = \"${CONTACTSCAN_SCENE_DIR}/drop.toml\"\n\n" +
			"[detection]\ntargets = \"floor\"\ncolliders = \"${CONTACTSCAN_COLLIDERS}\"\n"
		test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)

		cfg, err := Read(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Scene, test.ShouldEqual, "/scenes/drop.toml")
		test.That(t, cfg.Detection.Colliders, test.ShouldEqual, "balls")
	})

	t.Run("bad files", func(t *testing.T) {
		dir := t.TempDir()
		write := func(name, contents string) string {
			path := filepath.Join(dir, name)
			test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
			return path
		}

		_, err := Read(filepath.Join(dir, "missing.toml"))
		test.That(t, err, test.ShouldNotBeNil)

		_, err = Read(write("scan.yaml", "scene: x"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported file format")

		_, err = Read(write("typo.toml", "scenee = \"x\"\n"))
		test.That(t, err, test.ShouldNotBeNil)

		_, err = Read(write("broken.json", "{"))
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestValidate(t *testing.T) {
	cfg, err := FromAttributes(map[string]interface{}{
		"log_level": "loud",
		"detection": map[string]interface{}{"epsilon": -1},
	})
	test.That(t, err, test.ShouldBeNil)
	err = cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, want := range []string{"scene is required", "log_level", "detection.epsilon", "detection.targets"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, want)
	}
}
