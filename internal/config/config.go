// Package config layers daemon options from a TOML file and AURAD_*
// environment variables under the flags humacli parses.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smazurov/aurad/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. AURAD_API_ADDR.
const EnvPrefix = "AURAD_"

var durationType = reflect.TypeFor[time.Duration]()

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// option is one settable field of an options struct.
type option struct {
	value reflect.Value
	field reflect.StructField
}

func (o option) flag() string {
	if name := o.field.Tag.Get("name"); name != "" {
		return name
	}
	return kebab(o.field.Name)
}

// LoadConfig fills opts, a pointer to a flat options struct, from the file
// named by its Config field (toml tags) and then the environment (env tags).
// Flags changed on cmd's command line are left alone. A missing file is
// skipped; a malformed file or a value of the wrong type is an error.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: want pointer to struct, got %T", opts)
	}
	v = v.Elem()

	var options []option
	var path string
	for i := range v.NumField() {
		o := option{value: v.Field(i), field: v.Type().Field(i)}
		if o.field.Name == "Config" && o.value.Kind() == reflect.String {
			path = o.value.String()
		}
		if o.value.CanSet() {
			options = append(options, o)
		}
	}

	file, err := readTOML(path)
	if err != nil {
		return err
	}
	fromCLI := changedFlags(cmd)

	for _, o := range options {
		if fromCLI[o.flag()] {
			continue
		}
		if key := o.field.Tag.Get("toml"); key != "" {
			if raw, ok := lookup(file, key); ok {
				if err := assign(o.value, raw); err != nil {
					return fmt.Errorf("%s: %s: %w", path, key, err)
				}
			}
		}
		if key := o.field.Tag.Get("env"); key != "" {
			if raw := os.Getenv(EnvPrefix + key); raw != "" {
				if err := assignString(o.value, raw); err != nil {
					return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
				}
			}
		}
	}
	return nil
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	if cmd == nil {
		return changed
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = true
	})
	return changed
}

func readTOML(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// kebab turns a Go field name into its flag name, keeping acronyms
// together: APIAddr becomes api-addr and DBusEnabled d-bus-enabled.
func kebab(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// lookup resolves a dotted key such as "api.addr" in a decoded document.
func lookup(doc map[string]any, key string) (any, bool) {
	table := doc
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := table[part].(map[string]any)
		if !ok {
			return nil, false
		}
		table = next
	}
	v, ok := table[parts[len(parts)-1]]
	return v, ok
}

// assign stores a decoded TOML value. Durations accept a string such as
// "500ms" or an integer number of seconds.
func assign(dst reflect.Value, raw any) error {
	switch {
	case dst.Type() == durationType:
		switch d := raw.(type) {
		case string:
			return assignString(dst, d)
		case int64:
			dst.SetInt(d * int64(time.Second))
			return nil
		}
	case dst.Kind() == reflect.String:
		if s, ok := raw.(string); ok {
			dst.SetString(s)
			return nil
		}
	case dst.Kind() == reflect.Bool:
		if b, ok := raw.(bool); ok {
			dst.SetBool(b)
			return nil
		}
	case dst.CanInt():
		if n, ok := raw.(int64); ok {
			dst.SetInt(n)
			return nil
		}
	case dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.String:
		if items, ok := raw.([]any); ok {
			out := make([]string, 0, len(items))
			for _, item := range items {
				s, isString := item.(string)
				if !isString {
					return fmt.Errorf("want list of strings, got element %T", item)
				}
				out = append(out, s)
			}
			dst.Set(reflect.ValueOf(out))
			return nil
		}
	default:
		return fmt.Errorf("unsupported field type %s", dst.Type())
	}
	return fmt.Errorf("cannot use %T as %s", raw, dst.Type())
}

// assignString parses an environment value. Lists are comma separated.
func assignString(dst reflect.Value, raw string) error {
	switch {
	case dst.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		dst.SetInt(int64(d))
	case dst.Kind() == reflect.String:
		dst.SetString(raw)
	case dst.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case dst.CanInt():
		n, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.String:
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		dst.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field type %s", dst.Type())
	}
	return nil
}

// ReadLoggingConfig parses the [logging] table. Keys other than level and
// format are per-module levels. A missing file or table yields info/text.
func ReadLoggingConfig(path string) (logging.Config, error) {
	cfg := logging.Config{Level: "info", Format: "text", Modules: map[string]string{}}

	doc, err := readTOML(path)
	if err != nil {
		return cfg, err
	}
	table, _ := doc["logging"].(map[string]any)
	for key, raw := range table {
		value, ok := raw.(string)
		if !ok {
			return cfg, fmt.Errorf("%s: logging.%s: want string, got %T", path, key, raw)
		}
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		default:
			cfg.Modules[key] = value
		}
	}
	return cfg, nil
}
