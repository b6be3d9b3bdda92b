package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type ProviderConfig struct {
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	APIKey     string `json:"api_key"`
	TimeoutMS  int    `json:"timeout_ms"`
	MaxRetries int    `json:"max_retries"`
}

type RuntimeConfig struct {
	WorkspaceRoot  string `json:"workspace_root"`
	BootstrapPath  string `json:"bootstrap_path"`
	MaxSteps       int    `json:"max_steps"`
	MaxRecentTurns int    `json:"max_recent_turns"`
}

type SafetyConfig struct {
	CommandAllowlist []string `json:"command_allowlist"`
	CommandTimeoutMS int      `json:"command_timeout_ms"`
	SyntaxTimeoutMS  int      `json:"syntax_timeout_ms"`
	OutputLimitBytes int      `json:"output_limit_bytes"`
	ReadMaxChars     int      `json:"read_max_chars"`
	SearchMaxLines   int      `json:"search_max_lines"`
	DiffMaxBytes     int      `json:"diff_max_bytes"`
}

type ValidationConfig struct {
	Command     string `json:"command"`
	TimeoutMS   int    `json:"timeout_ms"`
	MaxAttempts int    `json:"max_attempts"`
	Push        bool   `json:"push"`
}

type StorageConfig struct {
	BaseDir string `json:"base_dir"`
}

type Config struct {
	Provider   ProviderConfig   `json:"provider"`
	Runtime    RuntimeConfig    `json:"runtime"`
	Safety     SafetyConfig     `json:"safety"`
	Validation ValidationConfig `json:"validation"`
	Storage    StorageConfig    `json:"storage"`
}

type fileValidationConfig struct {
	Command     *string `json:"command"`
	TimeoutMS   *int    `json:"timeout_ms"`
	MaxAttempts *int    `json:"max_attempts"`
	Push        *bool   `json:"push"`
}

type fileConfig struct {
	Provider   *ProviderConfig       `json:"provider"`
	Runtime    *RuntimeConfig        `json:"runtime"`
	Safety     *SafetyConfig         `json:"safety"`
	Validation *fileValidationConfig `json:"validation"`
	Storage    *StorageConfig        `json:"storage"`
}

func Default() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:    "http://localhost:8000/v1",
			Model:      "qwen3-coder-30b-a3b-instruct",
			TimeoutMS:  600000,
			MaxRetries: 3,
		},
		Runtime: RuntimeConfig{
			MaxSteps:       200,
			MaxRecentTurns: 20,
		},
		Safety: SafetyConfig{
			CommandAllowlist: []string{"make", "grep", "find", "git", "ls", "cat"},
			CommandTimeoutMS: 120000,
			SyntaxTimeoutMS:  30000,
			OutputLimitBytes: 64 * 1024,
			ReadMaxChars:     50000,
			SearchMaxLines:   200,
			DiffMaxBytes:     8192,
		},
		Validation: ValidationConfig{
			Command:     "",
			TimeoutMS:   1800000,
			MaxAttempts: 3,
			Push:        false,
		},
		Storage: StorageConfig{
			BaseDir: "~/.srcagent",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("AGENT_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".srcagent", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"agent.config.json",
		".srcagent/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Provider != nil {
		cfg.Provider = mergeProvider(cfg.Provider, *fc.Provider)
	}
	if fc.Runtime != nil {
		cfg.Runtime = mergeRuntime(cfg.Runtime, *fc.Runtime)
	}
	if fc.Safety != nil {
		cfg.Safety = mergeSafety(cfg.Safety, *fc.Safety)
	}
	if fc.Validation != nil {
		if fc.Validation.Command != nil {
			cfg.Validation.Command = *fc.Validation.Command
		}
		if fc.Validation.TimeoutMS != nil && *fc.Validation.TimeoutMS > 0 {
			cfg.Validation.TimeoutMS = *fc.Validation.TimeoutMS
		}
		if fc.Validation.MaxAttempts != nil && *fc.Validation.MaxAttempts > 0 {
			cfg.Validation.MaxAttempts = *fc.Validation.MaxAttempts
		}
		if fc.Validation.Push != nil {
			cfg.Validation.Push = *fc.Validation.Push
		}
	}
	if fc.Storage != nil {
		if strings.TrimSpace(fc.Storage.BaseDir) != "" {
			cfg.Storage.BaseDir = fc.Storage.BaseDir
		}
	}
}

func mergeProvider(base ProviderConfig, override ProviderConfig) ProviderConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if strings.TrimSpace(override.Model) != "" {
		base.Model = override.Model
	}
	if strings.TrimSpace(override.APIKey) != "" {
		base.APIKey = override.APIKey
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	if override.MaxRetries > 0 {
		base.MaxRetries = override.MaxRetries
	}
	return base
}

func mergeRuntime(base RuntimeConfig, override RuntimeConfig) RuntimeConfig {
	if strings.TrimSpace(override.WorkspaceRoot) != "" {
		base.WorkspaceRoot = override.WorkspaceRoot
	}
	if strings.TrimSpace(override.BootstrapPath) != "" {
		base.BootstrapPath = override.BootstrapPath
	}
	if override.MaxSteps > 0 {
		base.MaxSteps = override.MaxSteps
	}
	if override.MaxRecentTurns > 0 {
		base.MaxRecentTurns = override.MaxRecentTurns
	}
	return base
}

func mergeSafety(base SafetyConfig, override SafetyConfig) SafetyConfig {
	if len(override.CommandAllowlist) > 0 {
		base.CommandAllowlist = append([]string(nil), override.CommandAllowlist...)
	}
	if override.CommandTimeoutMS > 0 {
		base.CommandTimeoutMS = override.CommandTimeoutMS
	}
	if override.SyntaxTimeoutMS > 0 {
		base.SyntaxTimeoutMS = override.SyntaxTimeoutMS
	}
	if override.OutputLimitBytes > 0 {
		base.OutputLimitBytes = override.OutputLimitBytes
	}
	if override.ReadMaxChars > 0 {
		base.ReadMaxChars = override.ReadMaxChars
	}
	if override.SearchMaxLines > 0 {
		base.SearchMaxLines = override.SearchMaxLines
	}
	if override.DiffMaxBytes > 0 {
		base.DiffMaxBytes = override.DiffMaxBytes
	}
	return base
}

func normalize(cfg *Config) error {
	def := Default()
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = def.Provider.BaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = def.Provider.Model
	}
	if cfg.Provider.TimeoutMS <= 0 {
		cfg.Provider.TimeoutMS = def.Provider.TimeoutMS
	}
	if cfg.Provider.MaxRetries <= 0 {
		cfg.Provider.MaxRetries = def.Provider.MaxRetries
	}

	if cfg.Runtime.MaxSteps <= 0 {
		cfg.Runtime.MaxSteps = def.Runtime.MaxSteps
	}
	if cfg.Runtime.MaxRecentTurns <= 0 {
		cfg.Runtime.MaxRecentTurns = def.Runtime.MaxRecentTurns
	}
	cfg.Runtime.WorkspaceRoot = strings.TrimSpace(cfg.Runtime.WorkspaceRoot)
	cfg.Runtime.BootstrapPath = strings.TrimSpace(cfg.Runtime.BootstrapPath)

	if cfg.Safety.CommandTimeoutMS <= 0 {
		cfg.Safety.CommandTimeoutMS = def.Safety.CommandTimeoutMS
	}
	if cfg.Safety.SyntaxTimeoutMS <= 0 {
		cfg.Safety.SyntaxTimeoutMS = def.Safety.SyntaxTimeoutMS
	}
	if cfg.Safety.OutputLimitBytes <= 0 {
		cfg.Safety.OutputLimitBytes = def.Safety.OutputLimitBytes
	}
	if cfg.Safety.ReadMaxChars <= 0 {
		cfg.Safety.ReadMaxChars = def.Safety.ReadMaxChars
	}
	if cfg.Safety.SearchMaxLines <= 0 {
		cfg.Safety.SearchMaxLines = def.Safety.SearchMaxLines
	}
	if cfg.Safety.DiffMaxBytes <= 0 {
		cfg.Safety.DiffMaxBytes = def.Safety.DiffMaxBytes
	}
	cfg.Safety.CommandAllowlist = normalizeCommandList(cfg.Safety.CommandAllowlist)

	if cfg.Validation.TimeoutMS <= 0 {
		cfg.Validation.TimeoutMS = def.Validation.TimeoutMS
	}
	if cfg.Validation.MaxAttempts <= 0 {
		cfg.Validation.MaxAttempts = def.Validation.MaxAttempts
	}
	cfg.Validation.Command = strings.TrimSpace(cfg.Validation.Command)

	storageDir, err := expandPath(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}
	cfg.Storage.BaseDir = storageDir

	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("AGENT_BASE_URL")); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENT_MODEL")); v != "" {
		cfg.Provider.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENT_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENT_WORKSPACE_ROOT")); v != "" {
		cfg.Runtime.WorkspaceRoot = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENT_MAX_STEPS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid AGENT_MAX_STEPS: %q", v)
		}
		cfg.Runtime.MaxSteps = n
	}
	if v := strings.TrimSpace(os.Getenv("AGENT_VALIDATE_COMMAND")); v != "" {
		cfg.Validation.Command = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENT_STORAGE_DIR")); v != "" {
		cfg.Storage.BaseDir = v
	}

	return cfg, normalize(&cfg)
}

func normalizeCommandList(commands []string) []string {
	out := make([]string, 0, len(commands))
	seen := map[string]struct{}{}
	for _, c := range commands {
		trimmed := strings.TrimSpace(c)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

// stripJSONComments 容忍配置文件中的 // 与 /* */ 注释
// stripJSONComments tolerates // and /* */ comments in config files
func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
