package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

const EnvVarsPrefix = "/notesweb/prod/"

type Config struct {
	ListenAddr string
	DBPath     string

	CognitoRegion      string
	CognitoUserPoolID  string
	CognitoAppClientID string

	S3Region   string
	S3Bucket   string
	S3Endpoint string
	// Only used together with S3Endpoint, AWS deployments take the default chain.
	S3AccessKeyID     string
	S3SecretAccessKey string

	SignedURLTTL time.Duration
	SessionTTL   time.Duration
	CookieSecure bool

	WSEndpoint string
	WSRegion   string

	NodeID    int64
	BodyLimit string
	LogLevel  log.Lvl
}

// Load exports the environment for the current GO_ENV and reads the
// configuration from it.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("GO_ENV") == "production" {
		if err := loadProdEnv(ctx); err != nil {
			return nil, err
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from environment variables only.
func FromEnv() (*Config, error) {
	region := getEnv("AWS_REGION", "us-east-2")
	cfg := &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":7070"),
		DBPath:             getEnv("DB_PATH", "database.db"),
		CognitoRegion:      getEnv("AWS_COGNITO_REGION", region),
		CognitoUserPoolID:  os.Getenv("COGNITO_USER_POOL_ID"),
		CognitoAppClientID: os.Getenv("COGNITO_APP_CLIENT_ID"),
		S3Region:           getEnv("AWS_S3_REGION", region),
		S3Bucket:           os.Getenv("S3_BUCKET_NAME"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		WSEndpoint:         os.Getenv("WS_ENDPOINT"),
		WSRegion:           region,
		BodyLimit:          getEnv("BODY_LIMIT", "32M"),
	}

	var missing []string
	for name, val := range map[string]string{
		"COGNITO_USER_POOL_ID":  cfg.CognitoUserPoolID,
		"COGNITO_APP_CLIENT_ID": cfg.CognitoAppClientID,
		"S3_BUCKET_NAME":        cfg.S3Bucket,
	} {
		if val == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.SignedURLTTL, err = getDuration("SIGNED_URL_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.NodeID, err = getInt64("NODE_ID", 1); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = ParseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LiveUpdates reports whether socket events should be pushed.
func (c *Config) LiveUpdates() bool {
	return c.WSEndpoint != ""
}

func ParseLogLevel(level string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG, nil
	case "info", "":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// loadProdEnv exports every parameter stored under EnvVarsPrefix in the SSM
// Parameter Store as an environment variable.
func loadProdEnv(ctx context.Context) error {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(getEnv("AWS_REGION", "us-east-2")))
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)
	pages := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(EnvVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})

	loaded := 0
	for pages.HasMorePages() {
		out, err := pages.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("unable to load prod environment: %w", err)
		}

		for _, param := range out.Parameters {
			key := strings.TrimPrefix(aws.ToString(param.Name), EnvVarsPrefix)
			if err := os.Setenv(key, aws.ToString(param.Value)); err != nil {
				return fmt.Errorf("unable to set environment variable %s: %w", key, err)
			}
			loaded++
		}
	}
	log.Debugf("loaded %d prod environment variables", loaded)
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q for %s", raw, key)
	}
	return d, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q for %s", raw, key)
	}
	return b, nil
}

func getInt64(key string, defaultVal int64) (int64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q for %s", raw, key)
	}
	return n, nil
}
