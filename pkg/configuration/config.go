// Package configuration reads the INI style zen.cfg file. Every key the
// program reads has a built-in default, so a missing file is fine.
package configuration

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPath is the configuration file read when no -config flag is given.
const DefaultPath = "zen.cfg"

// LocalOverridePath is merged on top of the base file when present.
const LocalOverridePath = "zen.local.cfg"

type section map[string]string

// Config holds the settings grouped by INI section.
type Config struct {
	mu       sync.RWMutex
	sections map[string]section
	filePath string
}

var (
	globalConfig *Config
	once         sync.Once
)

// sectionOrder fixes the order sections are written by Save. Unknown
// sections follow alphabetically.
var sectionOrder = []string{"Interpreter", "Output", "Debug", "History", "Server", "TLS", "JWT"}

var defaults = map[string]section{
	"Interpreter": {
		"expression_cache_size":    "256",
		"expression_cache_max_age": "10m",
	},
	"Output": {
		"color":       "true",
		"show_timing": "false",
	},
	"Debug": {
		"enable_debug_logging": "false",
		"log_level":            "INFO",
		"log_file":             "zen.log",
		"max_log_size_mb":      "10",
		"log_rotation_count":   "3",
		"trace_lines":          "false",
		"log_interpreter":      "true",
		"log_expression":       "false",
		"log_config":           "true",
		"log_history":          "true",
		"log_server":           "true",
		"log_auth":             "true",
		"log_watch":            "true",
		"log_general":          "true",
	},
	"History": {
		"enabled":  "false",
		"database": "zen_history.db",
	},
	"Server": {
		"listen":              ":8080",
		"max_message_size_kb": "64",
		"write_wait_timeout":  "10s",
		"pong_timeout":        "60s",
		"max_channel_buffer":  "1024",
		"max_clients":         "100",
		"max_run_duration":    "30s",
	},
	"TLS": {
		"enable_tls":         "false",
		"enable_letsencrypt": "false",
		"domain":             "",
		"letsencrypt_email":  "",
		"cert_cache_dir":     "./certs",
		"cert_file":          "./certs/server.crt",
		"key_file":           "./certs/server.key",
		"http_addr":          ":80",
		"https_port":         "443",
	},
	"JWT": {
		"secret_key":             "",
		"require_token":          "false",
		"token_expiration_hours": "24",
	},
}

// Initialize loads the global configuration from configPath and, when
// present, LocalOverridePath.
func Initialize(configPath string) error {
	var err error
	once.Do(func() {
		var cfg *Config
		cfg, err = Load(configPath)
		if err != nil {
			return
		}
		if _, statErr := os.Stat(LocalOverridePath); statErr == nil {
			if err = cfg.mergeFile(LocalOverridePath); err != nil {
				err = fmt.Errorf("failed to load %s: %w", LocalOverridePath, err)
				return
			}
		}
		globalConfig = cfg
	})
	return err
}

// Load returns the defaults overlaid with filePath, if the file exists.
func Load(filePath string) (*Config, error) {
	cfg := &Config{sections: make(map[string]section, len(defaults)), filePath: filePath}
	for name, values := range defaults {
		s := make(section, len(values))
		for k, v := range values {
			s[k] = v
		}
		cfg.sections[name] = s
	}

	if err := cfg.mergeFile(filePath); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", filePath, err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.merge(f)
}

// merge reads `[Section]` headers and `key = value` pairs. Lines starting
// with ';' or '#' are comments.
func (c *Config) merge(r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var current section
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "", line[0] == ';', line[0] == '#':
			continue

		case line[0] == '[' && line[len(line)-1] == ']':
			name := strings.TrimSpace(line[1 : len(line)-1])
			if c.sections[name] == nil {
				c.sections[name] = make(section)
			}
			current = c.sections[name]

		default:
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				return fmt.Errorf("line %d: expected key = value, got %q", lineNo, line)
			}
			if current == nil {
				return fmt.Errorf("line %d: key %q outside of any section", lineNo, strings.TrimSpace(key))
			}
			current[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return scanner.Err()
}

func (c *Config) lookup(sectionName, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.sections[sectionName][key]
	return v, ok
}

// writeTo serialises c in a stable order.
func (c *Config) writeTo(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := append([]string(nil), sectionOrder...)
	var extra []string
	for name := range c.sections {
		if !contains(sectionOrder, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "; Zen interpreter configuration\n\n")
	for _, name := range names {
		s, ok := c.sections[name]
		if !ok {
			continue
		}
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(bw, "[%s]\n", name)
		for _, k := range keys {
			fmt.Fprintf(bw, "%s = %s\n", k, s[k])
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// get parses a global setting, returning def when it is missing, empty
// or unparsable.
func get[T any](sectionName, key string, def T, parse func(string) (T, error)) T {
	if globalConfig == nil {
		return def
	}
	raw, ok := globalConfig.lookup(sectionName, key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

// GetString returns a value from the configuration or defaultValue.
func GetString(sectionName, key, defaultValue string) string {
	if globalConfig == nil {
		return defaultValue
	}
	if v, ok := globalConfig.lookup(sectionName, key); ok {
		return v
	}
	return defaultValue
}

func GetInt(sectionName, key string, defaultValue int) int {
	return get(sectionName, key, defaultValue, strconv.Atoi)
}

func GetBool(sectionName, key string, defaultValue bool) bool {
	return get(sectionName, key, defaultValue, strconv.ParseBool)
}

func GetDuration(sectionName, key string, defaultValue time.Duration) time.Duration {
	return get(sectionName, key, defaultValue, time.ParseDuration)
}

// GetSection returns a copy of all key-value pairs of a section.
func GetSection(sectionName string) map[string]string {
	result := make(map[string]string)
	if globalConfig == nil {
		return result
	}

	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()
	for k, v := range globalConfig.sections[sectionName] {
		result[k] = v
	}
	return result
}

// SetString sets a value in the loaded configuration.
func SetString(sectionName, key, value string) {
	if globalConfig == nil {
		return
	}

	globalConfig.mu.Lock()
	defer globalConfig.mu.Unlock()
	if globalConfig.sections[sectionName] == nil {
		globalConfig.sections[sectionName] = make(section)
	}
	globalConfig.sections[sectionName][key] = value
}

// Save writes the current configuration back to its file.
func Save() error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}
	if err := os.MkdirAll(filepath.Dir(globalConfig.filePath), 0755); err != nil {
		return err
	}

	f, err := os.Create(globalConfig.filePath)
	if err != nil {
		return err
	}
	if err := globalConfig.writeTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Path returns the file the configuration was loaded from.
func Path() string {
	if globalConfig == nil {
		return ""
	}
	return globalConfig.filePath
}

// reset drops the global configuration so tests can load a fresh one.
func reset() {
	globalConfig = nil
	once = sync.Once{}
}
