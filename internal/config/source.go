package config

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// Source formats.
const (
	FormatCSV       = "csv"
	FormatXLSX      = "xlsx"
	FormatShapefile = "shapefile"
)

// SourceConfig describes how one corpus is decoded into records.
//
// When HasHeaders is false every selector is a 0-based column index.
type SourceConfig struct {
	Preset         string   `yaml:"preset,omitempty" mapstructure:"preset"`
	Format         string   `yaml:"format" mapstructure:"format"`
	Separator      string   `yaml:"separator" mapstructure:"separator"`
	QuoteChar      string   `yaml:"quote_char" mapstructure:"quote_char"`
	Charset        string   `yaml:"charset,omitempty" mapstructure:"charset"`
	HasHeaders     bool     `yaml:"has_headers" mapstructure:"has_headers"`
	IDField        string   `yaml:"id_field" mapstructure:"id_field"`
	IDTrimPrefix   string   `yaml:"id_trim_prefix,omitempty" mapstructure:"id_trim_prefix"`
	LatField       string   `yaml:"lat_field,omitempty" mapstructure:"lat_field"`
	LonField       string   `yaml:"lon_field,omitempty" mapstructure:"lon_field"`
	PrecisionField string   `yaml:"precision_field,omitempty" mapstructure:"precision_field"`
	NameFields     []string `yaml:"name_fields,omitempty" mapstructure:"name_fields"`
	Sheet          string   `yaml:"sheet,omitempty" mapstructure:"sheet"`
}

var sourceKeys = []string{
	"preset", "format", "separator", "quote_char", "charset", "has_headers",
	"id_field", "id_trim_prefix", "lat_field", "lon_field", "precision_field", "name_fields", "sheet",
}

// Presets for gazetteer exports the tool is usually run against.
var presets = map[string]SourceConfig{
	// Pleiades places CSV dump.
	"pleiades": {
		Format:         FormatCSV,
		Separator:      ",",
		QuoteChar:      `"`,
		HasHeaders:     true,
		IDField:        "id",
		LatField:       "reprLat",
		LonField:       "reprLong",
		PrecisionField: "locationPrecision",
		NameFields:     []string{"title"},
	},
	// Pleiades names CSV dump, keyed by the owning place path.
	"pleiades-names": {
		Format:       FormatCSV,
		Separator:    ",",
		QuoteChar:    `"`,
		HasHeaders:   true,
		IDField:      "pid",
		IDTrimPrefix: "/places/",
		NameFields:   []string{"title", "nameAttested", "nameTransliterated"},
	},
	// Pleiades locations CSV dump. Each row adds one point to its place.
	"pleiades-locations": {
		Format:       FormatCSV,
		Separator:    ",",
		QuoteChar:    `"`,
		HasHeaders:   true,
		IDField:      "pid",
		IDTrimPrefix: "/places/",
		LatField:     "reprLat",
		LonField:     "reprLong",
	},
	// GeoNames tab-separated dump (allCountries.txt, cities1000.txt).
	"geonames": {
		Format:     FormatCSV,
		Separator:  "\t",
		HasHeaders: false,
		IDField:    "0",
		LatField:   "4",
		LonField:   "5",
		NameFields: []string{"1", "2"},
	},
}

// PresetNames returns the registered preset names.
func PresetNames() []string {
	return []string{"geonames", "pleiades", "pleiades-locations", "pleiades-names"}
}

// ApplyPreset fills unset fields from the named preset. Explicitly set
// fields win, except HasHeaders which a preset can only turn on.
func (s *SourceConfig) ApplyPreset() error {
	if s.Preset == "" {
		return nil
	}
	p, ok := presets[strings.ToLower(s.Preset)]
	if !ok {
		return eris.Errorf("unknown preset %q", s.Preset)
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&s.Format, p.Format)
	fill(&s.Separator, p.Separator)
	fill(&s.QuoteChar, p.QuoteChar)
	fill(&s.IDField, p.IDField)
	fill(&s.IDTrimPrefix, p.IDTrimPrefix)
	fill(&s.LatField, p.LatField)
	fill(&s.LonField, p.LonField)
	fill(&s.PrecisionField, p.PrecisionField)
	if p.HasHeaders {
		s.HasHeaders = true
	}
	if len(s.NameFields) == 0 {
		s.NameFields = append([]string(nil), p.NameFields...)
	}
	return nil
}

// FormatName returns the configured format, defaulting to csv.
func (s SourceConfig) FormatName() string {
	if s.Format == "" {
		return FormatCSV
	}
	return strings.ToLower(s.Format)
}

// Delimiter returns the field separator rune. "tab" and `\t` are accepted
// spellings of a tab; empty means comma.
func (s SourceConfig) Delimiter() (rune, error) {
	switch s.Separator {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s.Separator) != 1 {
		return 0, eris.Errorf("separator %q must be a single character", s.Separator)
	}
	r, _ := utf8.DecodeRuneInString(s.Separator)
	if r == '\n' || r == '\r' || r == utf8.RuneError {
		return 0, eris.Errorf("separator %q is not usable", s.Separator)
	}
	return r, nil
}

// Quoted reports whether fields may be wrapped in double quotes. An empty
// QuoteChar disables quoting entirely.
func (s SourceConfig) Quoted() (bool, error) {
	switch s.QuoteChar {
	case "":
		return false, nil
	case `"`:
		return true, nil
	default:
		return false, eris.Errorf("quote_char %q is not supported (use \" or empty)", s.QuoteChar)
	}
}

// HasPoint reports whether both coordinate selectors are configured.
func (s SourceConfig) HasPoint() bool {
	return strings.TrimSpace(s.LatField) != "" && strings.TrimSpace(s.LonField) != ""
}

// Selectors returns every configured selector, names last.
func (s SourceConfig) Selectors() []string {
	out := []string{}
	for _, f := range []string{s.IDField, s.LatField, s.LonField, s.PrecisionField} {
		if f != "" {
			out = append(out, f)
		}
	}
	return append(out, s.NameFields...)
}

func (s SourceConfig) problems() []string {
	var errs []string

	format := s.FormatName()
	switch format {
	case FormatCSV, FormatXLSX, FormatShapefile:
	default:
		errs = append(errs, "format must be one of csv, xlsx, shapefile")
	}
	if format == FormatCSV {
		if _, err := s.Delimiter(); err != nil {
			errs = append(errs, err.Error())
		}
		if _, err := s.Quoted(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if strings.TrimSpace(s.IDField) == "" {
		errs = append(errs, "id_field is required")
	}
	if (s.LatField == "") != (s.LonField == "") {
		errs = append(errs, "lat_field and lon_field must be set together")
	}
	if format != FormatShapefile && len(s.NameFields) == 0 && !s.HasPoint() {
		errs = append(errs, "name_fields or lat_field/lon_field must be configured")
	}
	if !s.HasHeaders && format != FormatShapefile {
		for _, sel := range s.Selectors() {
			if n, err := strconv.Atoi(strings.TrimSpace(sel)); err != nil || n < 0 {
				errs = append(errs, "selector "+strconv.Quote(sel)+" must be a column index when has_headers is false")
			}
		}
	}
	return errs
}
