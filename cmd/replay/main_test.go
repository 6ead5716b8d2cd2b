package main

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"visionserver/internal/model"
	"visionserver/internal/repository/sqlite"

	"github.com/disintegration/imaging"
)

func writeTargetImage(t *testing.T, path string) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 320, 240))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)
	green := &image.Uniform{color.NRGBA{G: 255, A: 255}}
	draw.Draw(img, image.Rect(10, 50, 30, 70), green, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(100, 50, 120, 70), green, image.Point{}, draw.Src)

	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestRun_RecordsMeasurements(t *testing.T) {
	t.Setenv("LOG_DIR", filepath.Join(t.TempDir(), "logs"))
	images := t.TempDir()
	writeTargetImage(t, filepath.Join(images, "frame_001.png"))
	os.WriteFile(filepath.Join(images, "notes.txt"), []byte("ignored"), 0644)
	dbPath := filepath.Join(t.TempDir(), "data", "replay.db")
	outDir := filepath.Join(t.TempDir(), "annotated")

	var stdout bytes.Buffer
	if err := run([]string{"-images", images, "-db", dbPath, "-out", outDir}, &stdout); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "separation=90.0") {
		t.Errorf("Expected separation 90 in output, got %q", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(outDir, "frame_001_annotated.jpg")); err != nil {
		t.Errorf("Annotated frame not written: %v", err)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	records, err := sqlite.NewMeasurementRepository(db).GetAll(&model.MeasurementFilter{Camera: "replay"})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(records) != 1 || records[0].PixelSeparation != 90 || !records[0].TargetAcquired {
		t.Errorf("Unexpected records %+v", records)
	}
}

func TestRun_ReturnsErrorsInsteadOfExiting(t *testing.T) {
	t.Setenv("LOG_DIR", filepath.Join(t.TempDir(), "logs"))

	tests := []struct {
		name string
		args []string
	}{
		{"bad order", []string{"-images", t.TempDir(), "-order", "rightmost"}},
		{"missing images", []string{"-images", filepath.Join(t.TempDir(), "missing")}},
		{"unknown flag", []string{"-speed", "2"}},
	}

	for _, tt := range tests {
		var stdout bytes.Buffer
		if err := run(tt.args, &stdout); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestRun_NoImages(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"-images", t.TempDir()}, &stdout); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "No images found") {
		t.Errorf("Unexpected output %q", stdout.String())
	}
}
