package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/repository/sqlite"
	"visionserver/internal/service/networktable"
	"visionserver/internal/service/storage"
	"visionserver/internal/service/target"
	"visionserver/internal/service/tuning"
	"visionserver/internal/service/vision"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gocv.io/x/gocv"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Replays still images through the target pipeline and records the measurements.
func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Printf("Replay failed: %v", err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so they are closed before main exits.
func run(args []string, stdout io.Writer) error {
	cfg := config.Load()

	flags := flag.NewFlagSet("replay", flag.ContinueOnError)
	imagesDir := flags.String("images", "frames", "Directory containing captured frames")
	dbPath := flags.String("db", cfg.DatabasePath, "Database path")
	outDir := flags.String("out", "", "Directory for annotated frames (optional)")
	order := flags.String("order", cfg.PairOrder, "Contour pair order: detection or leftmost")
	camera := flags.String("camera", "replay", "Camera name stored with each measurement")
	if err := flags.Parse(args); err != nil {
		return err
	}

	pairOrder, err := target.ParsePairOrder(*order)
	if err != nil {
		return err
	}

	files, err := listImages(*imagesDir)
	if err != nil {
		return fmt.Errorf("failed to read images directory: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(stdout, "No images found to replay")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	cfg.BufferLimit = len(files)
	lg := logger.NewLogger(cfg)
	runID := uuid.NewString()
	buffer := storage.NewBufferService(cfg, lg, sqlite.NewMeasurementRepository(db), runID)

	calibration := cfg.Calibration()
	tables := networktable.NewMemoryInstance()
	registry := tuning.NewPipelineRegistry()
	if err := registry.Bind(tables.Table(networktable.LiveWindowTable)); err != nil {
		return err
	}
	grip := vision.NewGripPipeline(registry)
	defer grip.Close()
	processor := target.NewProcessor(target.NewEstimator(calibration, pairOrder), tables)
	pipeline := vision.NewPipeline(registry, grip, processor, vision.NewAnnotator(cfg.JPEGQuality))

	fmt.Fprintf(stdout, "Replaying %d frame(s) from %s as run %s\n", len(files), *imagesDir, runID)

	skipped := 0
	for i, name := range files {
		frame, err := loadFrame(filepath.Join(*imagesDir, name), calibration.CameraWidth, calibration.CameraHeight)
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", name, err)
			skipped++
			continue
		}

		out, err := pipeline.Process(frame)
		frame.Close()
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", name, err)
			skipped++
			continue
		}

		m := out.Result.Measurement
		fmt.Fprintf(stdout, "%-32s contours=%d separation=%.1f distance=%.2f angle=%.2f acquired=%t\n",
			name, m.ContourCount, m.PixelSeparation, m.DistanceInches, m.AngleDegrees, m.TargetAcquired)

		buffer.AddMeasurement(*camera, int64(i+1), m)

		if *outDir != "" {
			outName := strings.TrimSuffix(name, filepath.Ext(name)) + "_annotated.jpg"
			if err := os.WriteFile(filepath.Join(*outDir, outName), out.JPEG, 0644); err != nil {
				log.Printf("⚠️  Failed to write %s: %v", outName, err)
			}
		}
	}

	recorded := buffer.Pending()
	buffer.Flush()
	if buffer.Pending() != 0 {
		return fmt.Errorf("failed to save measurements to %s", *dbPath)
	}

	fmt.Fprintf(stdout, "✅ Recorded %d measurement(s), skipped %d\n", recorded, skipped)
	return nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// loadFrame decodes an image as a BGR mat, resizing it to the calibrated resolution.
func loadFrame(path string, width, height int) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), err
	}

	if b := img.Bounds(); width > 0 && height > 0 && (b.Dx() != width || b.Dy() != height) {
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	return gocv.ImageToMatRGB(img)
}
