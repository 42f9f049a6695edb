package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jimezsa/upjobs/internal/extract"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "upjobs"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
	CookiesFileName = "cookies.json"
	RulesFileName   = "rules.yaml"
	EnvPrefix       = "UPJOBS_"
)

// Browser selects the browser binary and the profile the scraper drives.
type Browser struct {
	ExecutablePath   string `json:"executable_path"`
	UserDataDir      string `json:"user_data_dir"`
	ProfileDirectory string `json:"profile_directory"`
	Headless         bool   `json:"headless"`
	CookiesPath      string `json:"cookies_path"`
	ScreenshotDir    string `json:"screenshot_dir"`
	ScrollSteps      int    `json:"scroll_steps"`
}

// Config contains default scrape and export settings. Delays are seconds.
type Config struct {
	SearchURL  string  `json:"search_url"`
	Query      string  `json:"query"`
	StorePath  string  `json:"store_path"`
	ExportPath string  `json:"export_path"`
	PageSize   int     `json:"page_size"`
	Source     string  `json:"source"`
	Browser    Browser `json:"browser"`

	WaitTimeout    int `json:"wait_timeout"`
	PageDelayMin   int `json:"page_delay_min"`
	PageDelayMax   int `json:"page_delay_max"`
	SettleDelayMin int `json:"settle_delay_min"`
	SettleDelayMax int `json:"settle_delay_max"`

	Interactive  bool `json:"interactive"`
	MaxRetries   int  `json:"max_retries"`
	RetryBackoff int  `json:"retry_backoff"`

	RulesPath string `json:"rules_path"`

	SupabaseURL string `json:"supabase_url"`
	SupabaseKey string `json:"supabase_key"`
}

func DefaultConfig() Config {
	return Config{
		SearchURL:  envString("UPJOBS_SEARCH_URL", "https://www.upwork.com/nx/search/jobs/"),
		Query:      envString("UPJOBS_QUERY", "machine learning"),
		StorePath:  envString("UPJOBS_STORE", "upwork_jobs.json"),
		ExportPath: envString("UPJOBS_EXPORT", "upwork_jobs.csv"),
		PageSize:   envInt("UPJOBS_PAGE_SIZE", 10),
		Source:     envString("UPJOBS_SOURCE", "browser"),
		Browser: Browser{
			ExecutablePath:   envString("UPJOBS_BROWSER_PATH", ""),
			UserDataDir:      envString("UPJOBS_USER_DATA_DIR", ""),
			ProfileDirectory: envString("UPJOBS_PROFILE_DIRECTORY", "Default"),
			Headless:         envBool("UPJOBS_HEADLESS", false),
			CookiesPath:      envString("UPJOBS_COOKIES", ""),
			ScreenshotDir:    envString("UPJOBS_SCREENSHOT_DIR", ""),
			ScrollSteps:      envInt("UPJOBS_SCROLL_STEPS", 3),
		},
		WaitTimeout:    envInt("UPJOBS_WAIT_TIMEOUT", 10),
		PageDelayMin:   envInt("UPJOBS_PAGE_DELAY_MIN", 8),
		PageDelayMax:   envInt("UPJOBS_PAGE_DELAY_MAX", 15),
		SettleDelayMin: envInt("UPJOBS_SETTLE_DELAY_MIN", 3),
		SettleDelayMax: envInt("UPJOBS_SETTLE_DELAY_MAX", 5),
		Interactive:    envBool("UPJOBS_INTERACTIVE", true),
		MaxRetries:     envInt("UPJOBS_MAX_RETRIES", 3),
		RetryBackoff:   envInt("UPJOBS_RETRY_BACKOFF", 30),
		RulesPath:      envString("UPJOBS_RULES", ""),
		SupabaseURL:    envString("UPJOBS_SUPABASE_URL", ""),
		SupabaseKey:    envString("UPJOBS_SUPABASE_KEY", ""),
	}
}

func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("UPJOBS_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	return inConfigDir(ConfigFileName)
}

func ProxiesPath() (string, error) {
	return inConfigDir(ProxiesFileName)
}

func RulesPath() (string, error) {
	return inConfigDir(RulesFileName)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func Load() (Config, error) {
	cfg := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ResolveRulesPath returns the configured rule file, falling back to
// rules.yaml in the config dir.
func (c Config) ResolveRulesPath() (string, error) {
	if strings.TrimSpace(c.RulesPath) != "" {
		return c.RulesPath, nil
	}
	return RulesPath()
}

// Init writes default config.json, proxies.txt and rules.yaml if they
// don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	rulesPath := filepath.Join(dir, RulesFileName)
	if _, err := os.Stat(rulesPath); errors.Is(err, os.ErrNotExist) {
		if err := writeRules(rulesPath); err != nil {
			return created, err
		}
		created = append(created, rulesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeRules(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := extract.DefaultRules().Dump(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("UPJOBS_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
