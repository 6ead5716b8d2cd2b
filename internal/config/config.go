package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"visionserver/internal/service/target"
)

// DefaultConfigFile is where the FRC image writes the camera configuration.
const DefaultConfigFile = "/boot/frc.json"

type Config struct {
	Port               int
	Password           string
	ConfigFile         string
	LogDirectory       string
	DatabasePath       string
	SnapshotDirectory  string
	RecordInterval     int // Co którą klatkę zapisywać pomiar (1=każdą)
	BufferLimit        int
	FlushInterval      int // sekundy
	ViewerFPS          float64
	JPEGQuality        int
	TuningRateLimit    float64 // zapytania na sekundę na IP
	RedisAddress       string
	RedisPassword      string
	RedisDB            int
	PairOrder          string
	CameraWidth        int
	CameraHeight       int
	DistanceConstant   float64
	WidthBetweenTarget float64
	OffsetToFront      float64

	// Filled from ConfigFile by LoadFile.
	Team    int
	Server  bool
	Cameras []CameraConfig
}

func Load() *Config {
	return &Config{
		Port:               getEnvAsInt("PORT", 1181),
		Password:           getEnv("PASSWORD", "frc"),
		ConfigFile:         getEnv("FRC_CONFIG", DefaultConfigFile),
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DatabasePath:       getEnv("DB_PATH", filepath.Join(".", "data", "measurements.db")),
		SnapshotDirectory:  getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		RecordInterval:     getEnvAsInt("RECORD_INTERVAL", 5),
		BufferLimit:        getEnvAsInt("BUFFER_LIMIT", 500),
		FlushInterval:      getEnvAsInt("FLUSH_INTERVAL", 10),
		ViewerFPS:          getEnvAsFloat("VIEWER_FPS", 10),
		JPEGQuality:        getEnvAsInt("JPEG_QUALITY", 60),
		TuningRateLimit:    getEnvAsFloat("TUNING_RATE_LIMIT", 20),
		RedisAddress:       getEnv("REDIS_ADDRESS", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		PairOrder:          strings.ToLower(getEnv("PAIR_ORDER", string(target.PairOrderDetection))),
		CameraWidth:        getEnvAsInt("CAMERA_WIDTH", target.DefaultCameraWidth),
		CameraHeight:       getEnvAsInt("CAMERA_HEIGHT", target.DefaultCameraHeight),
		DistanceConstant:   getEnvAsFloat("DISTANCE_CONSTANT", target.DefaultDistanceConstant),
		WidthBetweenTarget: getEnvAsFloat("WIDTH_BETWEEN_TARGET", target.DefaultWidthBetweenTarget),
		OffsetToFront:      getEnvAsFloat("OFFSET_TO_FRONT", target.DefaultOffsetToFront),
	}
}

// Calibration returns the estimator constants from the environment.
func (c *Config) Calibration() target.Calibration {
	return target.Calibration{
		CameraWidth:        c.CameraWidth,
		CameraHeight:       c.CameraHeight,
		DistanceConstant:   c.DistanceConstant,
		WidthBetweenTarget: c.WidthBetweenTarget,
		OffsetToFront:      c.OffsetToFront,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
