package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gopkg.in/yaml.v3"
)

func Init(filepath string) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		panic(err)
	}

	var conf ServiceConf
	if err := yaml.Unmarshal(content, &conf); err != nil {
		panic(err)
	}
	if secret := os.Getenv(EnvTokenSecret); secret != "" {
		conf.Token.Secret = secret
	}
	if err := conf.Validate(); err != nil {
		panic(fmt.Errorf("config %s: %w", filepath, err))
	}
	globalConfig = conf

	hlog.Debugf("config loaded from %s", filepath)
}

// EnvTokenSecret overrides token.secret so the secret can stay out of the file.
const EnvTokenSecret = "PASSPORT_TOKEN_SECRET"

// MinTokenSecretLen is the shortest HS256 secret accepted at startup.
const MinTokenSecretLen = 16

var (
	ErrTokenSecretTooShort = errors.New("token.secret is empty or too short")
	ErrCORSWildcardCreds   = errors.New(`cors: allow_origins "*" cannot be combined with allow_credentials`)
)

// Validate rejects settings the service must not start with.
func (c ServiceConf) Validate() error {
	if len(c.Token.Secret) < MinTokenSecretLen {
		return fmt.Errorf("%w: need at least %d bytes", ErrTokenSecretTooShort, MinTokenSecretLen)
	}
	if c.CORS.AllowCredentials && slices.Contains(c.CORS.AllowOrigins, "*") {
		return ErrCORSWildcardCreds
	}
	return nil
}

func GetServerConf() ServerConf {
	return globalConfig.Server
}

func GetMySQLConf() MySQLConf {
	return globalConfig.MySQL
}

func GetRedisConf() RedisConf {
	return globalConfig.Redis
}

func GetTokenConf() TokenConf {
	return globalConfig.Token
}

func GetLockConf() LockConf {
	return globalConfig.Lock
}

func GetCORSConf() CORSConf {
	return globalConfig.CORS
}

func GetRateLimitConf() []RateLimitConf {
	return globalConfig.RateLimit
}

func GetLoggerConf() LoggerConf {
	return globalConfig.Logger
}

func GetLoginProtectionConf() LoginProtectionConf {
	return globalConfig.LoginProtection
}

var globalConfig ServiceConf

type ServiceConf struct {
	Server          ServerConf          `yaml:"server"`
	MySQL           MySQLConf           `yaml:"mysql"`
	Redis           RedisConf           `yaml:"redis"`
	Token           TokenConf           `yaml:"token"`
	Lock            LockConf            `yaml:"lock"`
	CORS            CORSConf            `yaml:"cors"`
	RateLimit       []RateLimitConf     `yaml:"rate_limit"`
	Logger          LoggerConf          `yaml:"logger"`
	LoginProtection LoginProtectionConf `yaml:"login_protection"`
}

type ServerConf struct {
	HostPorts string `yaml:"host_ports"`
}

type MySQLConf struct {
	DBName   string `yaml:"db_name"`
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisConf struct {
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TokenConf configures login tokens. Expiration also bounds the lifetime of
// the session entry that backs the token.
type TokenConf struct {
	Issuer     string `yaml:"issuer"`
	Secret     string `yaml:"secret"`
	Expiration int    `yaml:"expiration"` // seconds
}

type LockConf struct {
	TTLMillis           int `yaml:"ttl_ms"`
	WaitMillis          int `yaml:"wait_ms"`
	RetryIntervalMillis int `yaml:"retry_interval_ms"`
}

type CORSConf struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

type RateLimitConf struct {
	Path          string `yaml:"path"`
	WindowSeconds int    `yaml:"window_seconds"`
	Limit         int64  `yaml:"limit"`
	ByUser        bool   `yaml:"by_user"`
}

type LoggerConf struct {
	Level      string `yaml:"level"`
	Dir        string `yaml:"dir"`
	FileName   string `yaml:"file_name"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

type LoginProtectionConf struct {
	WindowSeconds     int `yaml:"window_seconds"`
	Limit             int `yaml:"limit"`
	BlockMinDuration  int `yaml:"block_min_duration"`
	BlockHourDuration int `yaml:"block_hour_duration"`
	LevelDuration     int `yaml:"level_duration"`
}
