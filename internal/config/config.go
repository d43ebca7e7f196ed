package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config holds the application configuration
type Config struct {
	Render  RenderConfig  `json:"render"`
	Export  ExportConfig  `json:"export"`
	Preview PreviewConfig `json:"preview"`
	Output  OutputConfig  `json:"output"`
}

// RenderConfig holds the rasterization settings shared by preview and export
type RenderConfig struct {
	DPI float64 `json:"dpi" validate:"gt=0,lte=1200"`
}

// ExportConfig holds configuration for producing the cropped document
type ExportConfig struct {
	Quality       int    `json:"quality" validate:"min=1,max=100"`
	MixedPages    string `json:"mixed_pages" validate:"oneof=proportional reject"`
	ValidateInput bool   `json:"validate_input"`
	MaxPages      int    `json:"max_pages" validate:"gte=0"`
}

// PreviewConfig holds configuration for the composite preview
type PreviewConfig struct {
	Opacity float64 `json:"opacity" validate:"gt=0,lte=1"`
	// MaxDisplaySize limits the long side of saved preview images, 0 keeps full size
	MaxDisplaySize int `json:"max_display_size" validate:"gte=0"`
}

// OutputConfig holds configuration for output naming and debug artifacts
type OutputConfig struct {
	Suffix        string `json:"suffix" validate:"required"`
	DebugFormat   string `json:"debug_format" validate:"oneof=png jpg webp"`
	DebugQuality  int    `json:"debug_quality" validate:"min=1,max=100"`
	DebugLossless bool   `json:"debug_lossless"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			DPI: 300,
		},
		Export: ExportConfig{
			Quality:       85,
			MixedPages:    "proportional",
			ValidateInput: true,
			MaxPages:      0,
		},
		Preview: PreviewConfig{
			Opacity:        0.3,
			MaxDisplaySize: 2048,
		},
		Output: OutputConfig{
			Suffix:        "_crop",
			DebugFormat:   "png",
			DebugQuality:  92,
			DebugLossless: false,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads filename if it exists and falls back to defaults otherwise
func LoadOrDefault(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadFromFile(filename)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.export.quality"
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s cannot be empty", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "pdfcrop", "config.json")
}
