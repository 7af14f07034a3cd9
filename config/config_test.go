package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[run]
input = [1, -2, 3]
buffer = 16
trace = true
patch = "1=12,2=2"
mem = 0

[paint]
start = 1
png = "hull.png"
scale = 4

[amp]
phases = "5-9"
feedback = true
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	mem := 0
	want := &Config{
		Run:   Run{Input: []int64{1, -2, 3}, Buffer: 16, Trace: true, Patch: "1=12,2=2", Mem: &mem},
		Paint: Paint{Start: 1, PNG: "hull.png", Scale: 4, Enabled: true},
		Amp:   Amp{Phases: "5-9", Feedback: true},
		Path:  path,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, t.TempDir(), "[run]\ntrace = true\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Paint.Enabled {
		t.Error("paint enabled without a [paint] table")
	}
	if c.Paint.Scale != DefaultScale {
		t.Errorf("paint scale = %d, want %d", c.Paint.Scale, DefaultScale)
	}
	if c.Run.Buffer != 0 || c.Run.Input != nil || c.Run.Mem != nil {
		t.Errorf("run = %+v, want only trace set", c.Run)
	}
}

func TestLoadErrors(t *testing.T) {
	for _, c := range []struct {
		name    string
		content string
		msg     string
	}{
		{"syntax", "[run\n", "parse error"},
		{"type", "[run]\nbuffer = \"big\"\n", "parse error"},
		{"unknown key", "[run]\nspeed = 3\n", `unknown key "run.speed"`},
		{"buffer", "[run]\nbuffer = -1\n", "run.buffer"},
		{"mem", "[run]\nmem = -1\n", "run.mem"},
		{"start", "[paint]\nstart = 2\n", "paint.start"},
		{"scale", "[paint]\nscale = 0\n", "paint.scale"},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), c.content))
			if err == nil || !strings.Contains(err.Error(), c.msg) {
				t.Errorf("Load returned %v, want error containing %q", err, c.msg)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), FileName)); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "[amp]\nphases = \"0,1,2\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("FindAndLoad found nothing")
	}
	if c.Path != path {
		t.Errorf("path = %q, want %q", c.Path, path)
	}
	if c.Amp.Phases != "0,1,2" {
		t.Errorf("amp phases = %q, want 0,1,2", c.Amp.Phases)
	}
}
