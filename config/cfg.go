package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"hxc/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// ByteSize is amount of bytes written in human friendly form ("20 MB").
	ByteSize uint64

	ConverterConfig struct {
		MaxCellLength    int                  `yaml:"max_cell_length" validate:"min=1,max=32767"`
		TruncateSuffix   string               `yaml:"truncate_suffix"`
		EnableFontCache  bool                 `yaml:"enable_font_cache"`
		EnableStyleCache bool                 `yaml:"enable_style_cache"`
		ListNumbering    common.ListNumbering `yaml:"list_numbering" validate:"gte=0"`
		RunOverflow      common.RunOverflow   `yaml:"run_overflow" validate:"gte=0"`
		PxToPt           float64              `yaml:"px_to_pt" validate:"gt=0"`
		MinFontSize      float64              `yaml:"min_font_size" validate:"gte=1"`
	}

	ImagesConfig struct {
		EnableDownload bool          `yaml:"enable_download"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
		ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
		Workers        int           `yaml:"workers" validate:"gte=0"`
		MaxWidth       int           `yaml:"max_width" validate:"gte=0"`
		MaxSize        ByteSize      `yaml:"max_size" validate:"gt=0"`
		JPEGQuality    int           `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
		UserAgent      string        `yaml:"user_agent" validate:"required"`
		Authorization  SecretString  `yaml:"authorization,omitempty"`
	}

	OutputConfig struct {
		OutputNameTemplate string `yaml:"output_name_template"`
		SheetNameTemplate  string `yaml:"sheet_name_template"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Converter ConverterConfig `yaml:"converter"`
		Output    OutputConfig    `yaml:"output"`
		Images    ImagesConfig    `yaml:"images"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	TruncateSuffixFieldName     TemplateFieldName = "truncate_suffix"
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
	SheetNameTemplateFieldName  TemplateFieldName = "sheet_name_template"
)

// name templates are expanded for every conversion, and suffix may
// legitimately contain template-like text
var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(TruncateSuffixFieldName)),
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(SheetNameTemplateFieldName)),
)

// UnmarshalYAML accepts both plain numbers and humanized sizes.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("bad size '%s': %w", s, err)
	}
	*b = ByteSize(v)
	return nil
}

// MarshalYAML outputs size in human friendly form.
func (b ByteSize) MarshalYAML() (any, error) {
	return humanize.Bytes(uint64(b)), nil
}

// PoolSize returns number of concurrent image downloads, 0 workers means
// number of CPUs but not less than 2.
func (conf *ImagesConfig) PoolSize() int {
	if conf.Workers > 0 {
		return conf.Workers
	}
	return max(2, runtime.NumCPU())
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
