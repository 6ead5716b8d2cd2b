package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

// FileError reports a problem with the camera configuration file.
type FileError struct {
	File   string
	Reason string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("config error in '%s': %s", e.File, e.Reason)
}

// PropertyConfig is a raw camera or stream property.
type PropertyConfig struct {
	Name  string              `json:"name" validate:"required"`
	Value jsoniter.RawMessage `json:"value"`
}

// StreamConfig holds MJPEG stream properties.
type StreamConfig struct {
	Properties []PropertyConfig `json:"properties" validate:"dive"`
}

// CameraConfig describes one camera entry of frc.json. Only name, path and the
// video mode are acted on; the remaining settings are kept for the status page.
type CameraConfig struct {
	Name         string              `json:"name" validate:"required"`
	Path         string              `json:"path" validate:"required"`
	PixelFormat  string              `json:"pixel format,omitempty"`
	Width        int                 `json:"width,omitempty" validate:"gte=0"`
	Height       int                 `json:"height,omitempty" validate:"gte=0"`
	FPS          int                 `json:"fps,omitempty" validate:"gte=0"`
	Brightness   *int                `json:"brightness,omitempty" validate:"omitempty,gte=0,lte=100"`
	WhiteBalance jsoniter.RawMessage `json:"white balance,omitempty"`
	Exposure     jsoniter.RawMessage `json:"exposure,omitempty"`
	Properties   []PropertyConfig    `json:"properties,omitempty" validate:"dive"`
	Stream       *StreamConfig       `json:"stream,omitempty"`
}

// File is the decoded frc.json.
type File struct {
	Team    *int           `json:"team" validate:"required"`
	NTMode  string         `json:"ntmode"`
	Cameras []CameraConfig `json:"cameras" validate:"required,min=1"`
}

// LoadFile reads and validates the camera configuration file. Problems that the
// service can run with, such as an unknown ntmode, are returned as warnings.
func LoadFile(path string) (*File, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open '%s': %w", path, err)
	}
	return ParseFile(path, data)
}

// ParseFile decodes frc.json content; path is only used in error messages.
func ParseFile(path string, data []byte) (*File, []string, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, nil, &FileError{File: path, Reason: "must be JSON object"}
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, &FileError{File: path, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if err := validate.Struct(&file); err != nil {
		return nil, nil, &FileError{File: path, Reason: describe(err, "")}
	}

	for i := range file.Cameras {
		if err := validate.Struct(&file.Cameras[i]); err != nil {
			return nil, nil, &FileError{File: path, Reason: describe(err, file.Cameras[i].Name)}
		}
	}

	var warnings []string
	switch strings.ToLower(file.NTMode) {
	case "", "client", "server":
	default:
		warnings = append(warnings, (&FileError{
			File:   path,
			Reason: fmt.Sprintf("could not understand ntmode value '%s'", file.NTMode),
		}).Error())
		file.NTMode = "client"
	}

	return &file, warnings, nil
}

// IsServer reports whether this process hosts the network table.
func (f *File) IsServer() bool {
	return strings.EqualFold(f.NTMode, "server")
}

// ApplyFile copies the file settings into the runtime config.
func (c *Config) ApplyFile(f *File) {
	if f.Team != nil {
		c.Team = *f.Team
	}
	c.Server = f.IsServer()
	c.Cameras = f.Cameras
}

func describe(err error, camera string) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err.Error()
	}

	fe := validationErrors[0]
	switch fe.StructField() {
	case "Team":
		return "could not read team number"
	case "Cameras":
		return "could not read cameras"
	case "Name":
		if camera == "" {
			return "could not read camera name"
		}
		return fmt.Sprintf("camera '%s': property with no name", camera)
	case "Path":
		return fmt.Sprintf("camera '%s': could not read path", camera)
	}
	if camera != "" {
		return fmt.Sprintf("camera '%s': invalid %s", camera, strings.ToLower(fe.Field()))
	}
	return fmt.Sprintf("invalid %s", strings.ToLower(fe.Field()))
}
