package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"visionserver/internal/service/target"
)

const sampleFile = `{
	"team": 973,
	"ntmode": "server",
	"cameras": [
		{
			"name": "front",
			"path": "/dev/video0",
			"pixel format": "MJPEG",
			"width": 320,
			"height": 240,
			"fps": 30,
			"brightness": 30,
			"white balance": "auto",
			"exposure": 10,
			"properties": [{"name": "connect_verbose", "value": 1}],
			"stream": {"properties": [{"name": "compression", "value": 50}]}
		},
		{"name": "rear", "path": "/dev/video1"}
	]
}`

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.ConfigFile != DefaultConfigFile {
		t.Errorf("Expected config file %s, got %s", DefaultConfigFile, cfg.ConfigFile)
	}
	if cfg.Calibration() != target.DefaultCalibration() {
		t.Errorf("Expected default calibration, got %+v", cfg.Calibration())
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "5800")
	t.Setenv("DISTANCE_CONSTANT", "5738")
	t.Setenv("PAIR_ORDER", "LEFTMOST")
	t.Setenv("RECORD_INTERVAL", "not-a-number")

	cfg := Load()

	if cfg.Port != 5800 {
		t.Errorf("Expected port 5800, got %d", cfg.Port)
	}
	if cfg.DistanceConstant != 5738 {
		t.Errorf("Expected distance constant 5738, got %v", cfg.DistanceConstant)
	}
	if cfg.PairOrder != "leftmost" {
		t.Errorf("Expected lowercased pair order, got %s", cfg.PairOrder)
	}
	if cfg.RecordInterval != 5 {
		t.Errorf("Invalid int should fall back to default 5, got %d", cfg.RecordInterval)
	}
}

func TestParseFile_Valid(t *testing.T) {
	file, warnings, err := ParseFile("frc.json", []byte(sampleFile))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", warnings)
	}
	if *file.Team != 973 || !file.IsServer() {
		t.Errorf("Unexpected team/mode: %d %s", *file.Team, file.NTMode)
	}
	if len(file.Cameras) != 2 {
		t.Fatalf("Expected 2 cameras, got %d", len(file.Cameras))
	}

	front := file.Cameras[0]
	if front.Path != "/dev/video0" || front.PixelFormat != "MJPEG" || front.FPS != 30 {
		t.Errorf("Unexpected front camera: %+v", front)
	}
	if string(front.WhiteBalance) != `"auto"` {
		t.Errorf("Expected raw white balance, got %s", front.WhiteBalance)
	}
	if front.Stream == nil || len(front.Stream.Properties) != 1 {
		t.Errorf("Expected one stream property, got %+v", front.Stream)
	}

	cfg := &Config{}
	cfg.ApplyFile(file)
	if cfg.Team != 973 || !cfg.Server || len(cfg.Cameras) != 2 {
		t.Errorf("ApplyFile did not copy settings: %+v", cfg)
	}
}

func TestParseFile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		reason string
	}{
		{"not an object", `[1, 2]`, "must be JSON object"},
		{"missing team", `{"cameras": []}`, "could not read team number"},
		{"missing cameras", `{"team": 1}`, "could not read cameras"},
		{"empty cameras", `{"team": 1, "cameras": []}`, "could not read cameras"},
		{"missing camera name", `{"team": 1, "cameras": [{"path": "/dev/video0"}]}`, "could not read camera name"},
		{"missing camera path", `{"team": 1, "cameras": [{"name": "front"}]}`, "camera 'front': could not read path"},
		{"bad brightness", `{"team": 1, "cameras": [{"name": "front", "path": "/dev/video0", "brightness": 150}]}`, "camera 'front': invalid brightness"},
	}

	for _, tt := range tests {
		_, _, err := ParseFile("frc.json", []byte(tt.data))
		var fileErr *FileError
		if !errors.As(err, &fileErr) {
			t.Errorf("%s: expected FileError, got %v", tt.name, err)
			continue
		}
		if fileErr.Reason != tt.reason {
			t.Errorf("%s: reason = %q, expected %q", tt.name, fileErr.Reason, tt.reason)
		}
		if !strings.HasPrefix(err.Error(), "config error in 'frc.json': ") {
			t.Errorf("%s: unexpected message %q", tt.name, err.Error())
		}
	}
}

func TestParseFile_UnknownNTModeIsAWarning(t *testing.T) {
	file, warnings, err := ParseFile("frc.json", []byte(`{"team": 1, "ntmode": "peer", "cameras": [{"name": "front", "path": "/dev/video0"}]}`))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "could not understand ntmode value 'peer'") {
		t.Errorf("Unexpected warnings: %v", warnings)
	}
	if file.IsServer() {
		t.Error("Unknown ntmode should fall back to client")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
