// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyBotToken         = "BOT_TOKEN"
	KeyAdminIDs         = "ADMIN_IDS"
	KeyRequiredChannels = "REQUIRED_CHANNELS"
	KeyMongoURI         = "MONGO_URI"
	KeyMongoDB          = "MONGO_DB"
	KeyRedisURL         = "REDIS_URL"
	KeyPendingTTL       = "PENDING_TTL"
	KeyStatsTopCourses  = "STATS_TOP_COURSES"
	KeyAppEnv           = "APP_ENV"
	KeyLogLevel         = "LOG_LEVEL"
	KeyHTTPPort         = "HTTP_PORT"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv          = EnvProduction
	DefaultLogLevel        = "info"
	DefaultHTTPPort        = 8080
	DefaultStatsTopCourses = 5

	// Recommended database names by environment.
	DefaultMongoDBProd = "course_catalog"
	DefaultMongoDBDev  = "course_catalog_dev"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyBotToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather.",
	},
	{
		Key:         KeyAdminIDs,
		Example:     "111111111,222222222",
		Description: "Operator user ids allowed to use /admin and the admin panel.",
		Notes:       "Comma separated. Leaving it empty disables every admin operation.",
	},
	{
		Key:         KeyRequiredChannels,
		Example:     "-1001234567890,-1009876543210",
		Description: "Channels a user must have joined before browsing the catalog.",
		Notes:       "Comma separated chat ids. The bot must be an administrator in each channel.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string.",
	},
	{
		Key:         KeyMongoDB,
		Example:     DefaultMongoDBProd + " / " + DefaultMongoDBDev,
		Required:    true,
		Description: "MongoDB database name.",
		Notes:       "Recommended: production=" + DefaultMongoDBProd + ", development=" + DefaultMongoDBDev + ".",
	},
	{
		Key:         KeyRedisURL,
		Example:     "redis://localhost:6379/0",
		Description: "Keeps pending admin actions in Redis instead of process memory.",
	},
	{
		Key:         KeyPendingTTL,
		Example:     "30m",
		Default:     "0",
		Description: "Expiry for armed admin actions; 0 keeps them until consumed or cancelled.",
	},
	{
		Key:         KeyStatsTopCourses,
		Example:     strconv.Itoa(DefaultStatsTopCourses),
		Default:     strconv.Itoa(DefaultStatsTopCourses),
		Description: "Number of courses listed in the stats view; 0 hides the listing.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "HTTP health and metrics port.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	BotToken         string
	AdminIDs         []int64
	RequiredChannels []int64
	MongoURI         string
	MongoDB          string
	RedisURL         string
	PendingTTL       time.Duration
	StatsTopCourses  int
	AppEnv           string
	LogLevel         string
	HTTPPort         int
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:          firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		BotToken:        strings.TrimSpace(os.Getenv(KeyBotToken)),
		MongoURI:        strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:         strings.TrimSpace(os.Getenv(KeyMongoDB)),
		RedisURL:        strings.TrimSpace(os.Getenv(KeyRedisURL)),
		LogLevel:        firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:        DefaultHTTPPort,
		StatsTopCourses: DefaultStatsTopCourses,
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.BotToken == "" {
		missing = append(missing, KeyBotToken)
	}
	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}
	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if err := validateURIScheme(KeyMongoURI, cfg.MongoURI, "mongodb", "mongodb+srv"); err != nil {
		return Config{}, err
	}
	if cfg.RedisURL != "" {
		if err := validateURIScheme(KeyRedisURL, cfg.RedisURL, "redis", "rediss"); err != nil {
			return Config{}, err
		}
	}

	if cfg.AdminIDs, err = parseIDList(KeyAdminIDs, os.Getenv(KeyAdminIDs)); err != nil {
		return Config{}, err
	}
	if cfg.RequiredChannels, err = parseIDList(KeyRequiredChannels, os.Getenv(KeyRequiredChannels)); err != nil {
		return Config{}, err
	}

	if raw := strings.TrimSpace(os.Getenv(KeyPendingTTL)); raw != "" && raw != "0" {
		ttl, parseErr := time.ParseDuration(raw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyPendingTTL, parseErr)
		}
		if ttl < 0 {
			return Config{}, fmt.Errorf("%s must not be negative", KeyPendingTTL)
		}
		cfg.PendingTTL = ttl
	}

	if raw := strings.TrimSpace(os.Getenv(KeyStatsTopCourses)); raw != "" {
		top, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyStatsTopCourses, parseErr)
		}
		if top < 0 {
			return Config{}, fmt.Errorf("%s must not be negative", KeyStatsTopCourses)
		}
		cfg.StatsTopCourses = top
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// IsOperator reports whether userID is in the operator allow-list.
func (c Config) IsOperator(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// FormatRedacted renders the resolved configuration with secrets masked.
func FormatRedacted(cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s=%s\n", KeyBotToken, redactToken(cfg.BotToken))
	fmt.Fprintf(&b, "%s=%s\n", KeyAdminIDs, joinIDs(cfg.AdminIDs))
	fmt.Fprintf(&b, "%s=%s\n", KeyRequiredChannels, joinIDs(cfg.RequiredChannels))
	fmt.Fprintf(&b, "%s=%s\n", KeyMongoURI, redactURI(cfg.MongoURI))
	fmt.Fprintf(&b, "%s=%s\n", KeyMongoDB, cfg.MongoDB)
	fmt.Fprintf(&b, "%s=%s\n", KeyRedisURL, redactURI(cfg.RedisURL))
	fmt.Fprintf(&b, "%s=%s\n", KeyPendingTTL, cfg.PendingTTL)
	fmt.Fprintf(&b, "%s=%d\n", KeyStatsTopCourses, cfg.StatsTopCourses)
	fmt.Fprintf(&b, "%s=%s\n", KeyAppEnv, cfg.AppEnv)
	fmt.Fprintf(&b, "%s=%s\n", KeyLogLevel, cfg.LogLevel)
	fmt.Fprintf(&b, "%s=%d", KeyHTTPPort, cfg.HTTPPort)

	return b.String()
}

func parseIDList(key, raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		if id == 0 {
			return nil, fmt.Errorf("invalid %s entry %q: id must be non-zero", key, part)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// redactToken keeps the bot id prefix (the part before ':') and masks the secret.
func redactToken(token string) string {
	if token == "" {
		return ""
	}
	if idx := strings.Index(token, ":"); idx > 0 {
		return token[:idx] + ":...redacted"
	}
	if len(token) > 4 {
		return token[:4] + "...redacted"
	}
	return "...redacted"
}

// redactURI drops userinfo so passwords never reach stdout.
func redactURI(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "...redacted"
	}
	parsed.User = nil
	return parsed.String()
}

func validateURIScheme(key, raw string, schemes ...string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	for _, scheme := range schemes {
		if strings.EqualFold(parsed.Scheme, scheme) {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: scheme must be one of %s", key, strings.Join(schemes, ", "))
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
