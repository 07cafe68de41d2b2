package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/blob-detector-mcp/internal/config"
)

const areaOnlyConfig = `threshold:
  type: Otsu
minDistBetweenObjects: 10
filters:
  - type: AreaFilter
    min: 500
    max: 20000
`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(envLogLevel, "")

	var out, errOut bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out, &errOut)
	err := app.Run(append([]string{"blob-detector-mcp"}, args...))
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// writeTwoDisks writes a 200x100 gray PNG with bright disks at (60,50) and
// (150,50).
func writeTwoDisks(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	for _, cx := range []int{60, 150} {
		for y := 25; y <= 75; y++ {
			for x := cx - 25; x <= cx+25; x++ {
				dx, dy := x-cx, y-50
				if dx*dx+dy*dy <= 625 {
					img.SetGray(x, y, color.Gray{Y: 200})
				}
			}
		}
	}

	path := filepath.Join(dir, "disks.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "blob-detector-mcp "+Version) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFilters(t *testing.T) {
	out, _, err := run(t, "", "filters")
	if err != nil {
		t.Fatalf("filters failed: %v", err)
	}
	for _, want := range []string{"AreaFilter", "ExtentFilter", "Otsu", "Range"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not list %s:\n%s", want, out)
		}
	}
}

func TestConfigInitAndCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.yaml")

	if _, _, err := run(t, "", "config", "init", path); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := config.Load(path, config.DefaultRegistry()); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}

	if _, _, err := run(t, "", "config", "init", path); err == nil {
		t.Error("config init should refuse to overwrite")
	}
	if _, _, err := run(t, "", "config", "init", "--force", path); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	out, _, err := run(t, "", "config", "check", path)
	if err != nil {
		t.Fatalf("config check failed: %v", err)
	}
	if !strings.Contains(out, "Otsu policy, 2 filters") {
		t.Errorf("unexpected output %q", out)
	}

	bad := writeFile(t, t.TempDir(), "bad.yaml", "threshold:\n  type: Nope\n")
	if _, _, err := run(t, "", "config", "check", bad); err == nil {
		t.Error("config check should fail for an unknown policy")
	}
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	img := writeTwoDisks(t, dir)
	cfg := writeFile(t, dir, "area.yaml", areaOnlyConfig)
	annotated := filepath.Join(dir, "annotated.png")

	out, _, err := run(t, "", "detect", "--config", cfg, "--concurrency", "2", "--annotate", annotated, img)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	var result detectOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.Count != 2 || len(result.Objects) != 2 {
		t.Fatalf("got %d objects, want 2", result.Count)
	}
	if o := result.Objects[0]; o.X < 59.5 || o.X > 60.5 || o.Y < 49.5 || o.Y > 50.5 {
		t.Errorf("first object at (%.2f,%.2f), want (60,50)", o.X, o.Y)
	}

	f, err := os.Open(annotated)
	if err != nil {
		t.Fatalf("annotated image missing: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("annotated image is not a PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("annotated size: got %v", b)
	}
}

func TestDetect_Errors(t *testing.T) {
	dir := t.TempDir()
	img := writeTwoDisks(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"no image", []string{"detect"}},
		{"two images", []string{"detect", img, img}},
		{"missing image", []string{"detect", filepath.Join(dir, "missing.png")}},
		{"missing config", []string{"detect", "--config", filepath.Join(dir, "missing.yaml"), img}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, "", tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestServe(t *testing.T) {
	stdin := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_filters","arguments":{}}}` + "\n"

	for _, args := range [][]string{nil, {"serve"}} {
		out, _, err := run(t, stdin, args...)
		if err != nil {
			t.Fatalf("serve %v failed: %v", args, err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("serve %v: got %d response lines, want 2:\n%s", args, len(lines), out)
		}
		if !strings.Contains(lines[1], "AreaFilter") {
			t.Errorf("list_filters response missing filters: %s", lines[1])
		}
	}
}

func TestServe_LogsToErrOut(t *testing.T) {
	out, errOut, err := run(t, "", "--debug", "serve")
	if err != nil {
		t.Fatalf("serve failed: %v", err)
	}
	if out != "" {
		t.Errorf("stdout must carry only MCP traffic, got %q", out)
	}
	if !strings.Contains(errOut, "Starting MCP server") {
		t.Errorf("expected debug logs on stderr, got %q", errOut)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		debug     bool
		wantLevel logrus.Level
		wantJSON  bool
		wantErr   bool
	}{
		{"info", "info", false, logrus.InfoLevel, true, false},
		{"debug flag", "warn", true, logrus.DebugLevel, false, false},
		{"debug level", "debug", false, logrus.DebugLevel, false, false},
		{"invalid", "loud", false, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := newLogger(&bytes.Buffer{}, tt.level, tt.debug)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newLogger failed: %v", err)
			}
			if log.GetLevel() != tt.wantLevel {
				t.Errorf("level: got %v, want %v", log.GetLevel(), tt.wantLevel)
			}
			if _, isJSON := log.Formatter.(*logrus.JSONFormatter); isJSON != tt.wantJSON {
				t.Errorf("JSON formatter: got %v, want %v", isJSON, tt.wantJSON)
			}
		})
	}
}
