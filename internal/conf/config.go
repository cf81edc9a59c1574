package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/iceymoss/go-fpl/internal/core"
	"github.com/iceymoss/go-fpl/internal/engine"
)

// EnvPrefix 环境变量前缀，如 FPL_DATABASE_DSN 覆盖 database.dsn
const EnvPrefix = "FPL"

// 任务名
const (
	TaskGameState       = "game_state"
	TaskFixtures        = "fixtures"
	TaskLeagueStandings = "league_standings"
	TaskTransfers       = "transfers"
	TaskPlayerPhotos    = "player_photos"
	TaskLivePoints      = "live_points"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	FPL       FPLConfig       `mapstructure:"fpl"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tasks     []TaskConfig    `mapstructure:"tasks"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type SchedulerConfig struct {
	Schedule    string        `mapstructure:"schedule"`
	TierPolicy  string        `mapstructure:"tier_policy"` // continue / halt
	HistorySize int           `mapstructure:"history_size"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	Timezone    string        `mapstructure:"timezone"`
}

type FPLConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	PhotoBaseURL string        `mapstructure:"photo_base_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RatePerSec   float64       `mapstructure:"rate_per_sec"`
	Burst        int           `mapstructure:"burst"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBase    time.Duration `mapstructure:"retry_base"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql / postgres
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"` // 本地存储路径，如 ./data/files
	BaseURL  string `mapstructure:"base_url"`  // 访问URL，如 http://localhost:8080/static
}

// TaskConfig 单个同步任务的配置，没写的字段取该任务的默认值
type TaskConfig struct {
	Name        string        `mapstructure:"name"`
	Enabled     *bool         `mapstructure:"enabled"`
	Tier        string        `mapstructure:"tier"`
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
	Leagues     []int         `mapstructure:"leagues"`   // league_standings 同步哪些联赛
	Entries     []int         `mapstructure:"entries"`   // transfers 额外跟踪的经理
	MaxPages    int           `mapstructure:"max_pages"` // league_standings 每个联赛最多翻几页
	Limit       int           `mapstructure:"limit"`     // player_photos 每次最多下载几张
}

func (t TaskConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// TierValue 解析后的层级，调用前应已通过 Validate
func (t TaskConfig) TierValue() core.Tier {
	tier, _ := core.ParseTier(t.Tier)
	return tier
}

// DefaultTasks 每个任务的默认层级和间隔
func DefaultTasks() []TaskConfig {
	return []TaskConfig{
		{Name: TaskGameState, Tier: core.TierFirst.String(), Interval: time.Hour, Concurrency: 1},
		{Name: TaskFixtures, Tier: core.TierSecond.String(), Interval: 30 * time.Minute, Concurrency: 1},
		{Name: TaskLeagueStandings, Tier: core.TierSecond.String(), Interval: 10 * time.Minute, Concurrency: 5, MaxPages: 20},
		{Name: TaskTransfers, Tier: core.TierThird.String(), Interval: 30 * time.Minute, Concurrency: 10},
		{Name: TaskPlayerPhotos, Tier: core.TierThird.String(), Interval: 24 * time.Hour, Concurrency: 10, Limit: 200},
		{Name: TaskLivePoints, Tier: core.TierFourth.String(), Interval: time.Minute, Concurrency: 1},
	}
}

func defaultTask(name string) (TaskConfig, bool) {
	for _, t := range DefaultTasks() {
		if t.Name == name {
			return t, true
		}
	}
	return TaskConfig{}, false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("scheduler.schedule", engine.DefaultSchedule)
	v.SetDefault("scheduler.tier_policy", engine.ContinueOnFailure.String())
	v.SetDefault("scheduler.history_size", 50)
	v.SetDefault("scheduler.task_timeout", time.Duration(0))
	v.SetDefault("scheduler.timezone", "Europe/London")

	v.SetDefault("fpl.base_url", "https://fantasy.premierleague.com/api")
	v.SetDefault("fpl.photo_base_url", "https://resources.premierleague.com/premierleague/photos/players/110x140")
	v.SetDefault("fpl.user_agent", "go-fpl/1.0")
	v.SetDefault("fpl.timeout", 30*time.Second)
	v.SetDefault("fpl.rate_per_sec", 5.0)
	v.SetDefault("fpl.burst", 5)
	v.SetDefault("fpl.max_retries", 5)
	v.SetDefault("fpl.retry_base", 500*time.Millisecond)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_open", 30)
	v.SetDefault("database.max_idle", 15)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mongo.enabled", false)
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "fpl")
	v.SetDefault("mongo.collection", "raw_payloads")

	v.SetDefault("storage.base_path", "./data/files")
	v.SetDefault("storage.base_url", "/static")
}

// LoadConfig 加载配置，path 为空时只用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // 自动读取环境变量

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("conf: read %s: %w", path, err)
		}
	}

	// 允许环境变量替换 YAML 中的 ${VAR}
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("conf: decode: %w", err)
	}
	c.applyTaskDefaults()
	return &c, nil
}

// applyTaskDefaults 没配置 tasks 时启用全部任务；配置了的补齐缺省字段
func (c *Config) applyTaskDefaults() {
	if len(c.Tasks) == 0 {
		c.Tasks = DefaultTasks()
		return
	}
	for i := range c.Tasks {
		t := &c.Tasks[i]
		t.Name = strings.TrimSpace(t.Name)
		def, ok := defaultTask(t.Name)
		if !ok {
			continue
		}
		if t.Tier == "" {
			t.Tier = def.Tier
		}
		if t.Interval == 0 {
			t.Interval = def.Interval
		}
		if t.Concurrency == 0 {
			t.Concurrency = def.Concurrency
		}
		if t.MaxPages == 0 {
			t.MaxPages = def.MaxPages
		}
		if t.Limit == 0 {
			t.Limit = def.Limit
		}
	}
}

// Task 按名称查找任务配置
func (c *Config) Task(name string) (TaskConfig, bool) {
	for _, t := range c.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskConfig{}, false
}

// Validate 一次性返回所有配置错误
func (c *Config) Validate() error {
	var errs []error

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Scheduler.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.schedule %q: %w", c.Scheduler.Schedule, err))
	}
	if _, err := engine.ParseTierPolicy(c.Scheduler.TierPolicy); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.tier_policy: %w", err))
	}

	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "postgres", "postgresql", "pgx", "cockroach", "cockroachdb":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.Mongo.Enabled && c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri is required when mongo is enabled"))
	}
	if c.FPL.MaxRetries < 0 {
		errs = append(errs, errors.New("fpl.max_retries must not be negative"))
	}

	seen := make(map[string]bool)
	for i, t := range c.Tasks {
		prefix := fmt.Sprintf("tasks[%d] %q", i, t.Name)
		if _, ok := defaultTask(t.Name); !ok {
			errs = append(errs, fmt.Errorf("%s: unknown task", prefix))
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate task", prefix))
		}
		seen[t.Name] = true
		if _, err := core.ParseTier(t.Tier); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
		if t.Interval <= 0 {
			errs = append(errs, fmt.Errorf("%s: interval must be positive", prefix))
		}
	}
	return errors.Join(errs...)
}
