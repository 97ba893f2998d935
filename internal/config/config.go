package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"talent-pipeline/internal/transform"
)

// Rule maps job title patterns to a job mapping level. Patterns are regular
// expressions; the first rule with a matching pattern wins.
type Rule struct {
	Level string   `yaml:"level" json:"level"`
	Any   []string `yaml:"any" json:"any"`
}

// Batch is one normalizer run: a dataset label, the normalizer applied to
// it, and the store table the result replaces.
type Batch struct {
	Name    string `yaml:"name" json:"name"`
	Kind    string `yaml:"kind" json:"kind"` // applicants | jobs | offers
	Dataset string `yaml:"dataset" json:"dataset"`
	Table   string `yaml:"table" json:"table"`

	ApplicantType string `yaml:"applicant_type,omitempty" json:"applicant_type,omitempty"`
	OfferStatus   string `yaml:"offer_status,omitempty" json:"offer_status,omitempty"`

	Columns     []string          `yaml:"columns,omitempty" json:"columns,omitempty"`
	Rename      map[string]string `yaml:"rename,omitempty" json:"rename,omitempty"`
	Dedup       []string          `yaml:"dedup,omitempty" json:"dedup,omitempty"`
	DateColumns []string          `yaml:"date_columns,omitempty" json:"date_columns,omitempty"`

	// Pair adds the Job ID/Person ID join key before loading.
	Pair bool `yaml:"pair,omitempty" json:"pair,omitempty"`
	// Mart is a dataset label the normalized batch is also written to.
	Mart string `yaml:"mart,omitempty" json:"mart,omitempty"`
}

const (
	KindApplicants = "applicants"
	KindJobs       = "jobs"
	KindOffers     = "offers"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
		DBPath  string `yaml:"db_path" json:"db_path"`
	} `yaml:"app" json:"app"`

	Log struct {
		Level string `yaml:"level" json:"level"`
	} `yaml:"log" json:"log"`

	Scrape struct {
		InputDir       string   `yaml:"input_dir" json:"input_dir"`
		OutputDir      string   `yaml:"output_dir" json:"output_dir"`
		URLMaps        []string `yaml:"url_maps" json:"url_maps"`
		DisableSSL     bool     `yaml:"disable_ssl" json:"disable_ssl"`
		Retries        int      `yaml:"retries" json:"retries"`
		BackoffMillis  int      `yaml:"backoff_ms" json:"backoff_ms"`
		TimeoutSeconds int      `yaml:"timeout_seconds" json:"timeout_seconds"`
		Workers        int      `yaml:"workers" json:"workers"`
		RatePerSecond  float64  `yaml:"rate_per_second" json:"rate_per_second"`
		Burst          int      `yaml:"burst" json:"burst"`
		// Username enables basic auth; the password lives in the keychain.
		Username string `yaml:"username" json:"username"`
	} `yaml:"scrape" json:"scrape"`

	Datasets struct {
		IndexFile  string `yaml:"index_file" json:"index_file"`
		Dir        string `yaml:"dir" json:"dir"`
		MartDir    string `yaml:"mart_dir" json:"mart_dir"`
		DateLayout string `yaml:"date_layout" json:"date_layout"`
	} `yaml:"datasets" json:"datasets"`

	Pipeline struct {
		// RunDate pins the reference day (YYYY-MM-DD). Empty means today.
		RunDate        string   `yaml:"run_date" json:"run_date"`
		PipelineFields []string `yaml:"pipeline_fields" json:"pipeline_fields"`
		Batches        []Batch  `yaml:"batches" json:"batches"`
	} `yaml:"pipeline" json:"pipeline"`

	Levels []Rule `yaml:"levels" json:"levels"`

	Schedule struct {
		RunSeconds int `yaml:"run_seconds" json:"run_seconds"`
	} `yaml:"schedule" json:"schedule"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Port == 0 {
		cfg.App.Port = 38472
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = "."
	}
	if cfg.App.DBPath == "" {
		cfg.App.DBPath = "talent.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Scrape.Retries == 0 {
		cfg.Scrape.Retries = 3
	}
	if cfg.Scrape.BackoffMillis == 0 {
		cfg.Scrape.BackoffMillis = 1000
	}
	if cfg.Scrape.TimeoutSeconds == 0 {
		cfg.Scrape.TimeoutSeconds = 30
	}
	if cfg.Scrape.Workers == 0 {
		cfg.Scrape.Workers = 4
	}
	if cfg.Scrape.RatePerSecond == 0 {
		cfg.Scrape.RatePerSecond = 2
	}
	if cfg.Scrape.Burst == 0 {
		cfg.Scrape.Burst = 1
	}
	if cfg.Scrape.OutputDir == "" {
		cfg.Scrape.OutputDir = "warehouse"
	}
	if cfg.Datasets.IndexFile == "" {
		cfg.Datasets.IndexFile = "index.json"
	}
	if cfg.Datasets.Dir == "" {
		cfg.Datasets.Dir = "warehouse"
	}
	if cfg.Datasets.MartDir == "" {
		cfg.Datasets.MartDir = "mart"
	}
	if cfg.Pipeline.PipelineFields == nil {
		cfg.Pipeline.PipelineFields = transform.DefaultPipelineFields()
	}
}

// Resolve anchors a relative path at the data directory.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

// Attempts is the total request count per page: the first try plus Retries.
func (c Config) Attempts() int {
	return c.Scrape.Retries + 1
}

func (c Config) Backoff() time.Duration {
	return time.Duration(c.Scrape.BackoffMillis) * time.Millisecond
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

// RunDate returns the pinned run date, or today truncated to midnight UTC.
func (c Config) RunDate(now time.Time) (time.Time, error) {
	if c.Pipeline.RunDate == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", c.Pipeline.RunDate)
}

// LevelRules compiles the configured level table, falling back to the
// built-in one when none is set.
func (c Config) LevelRules() ([]transform.LevelRule, error) {
	if len(c.Levels) == 0 {
		return transform.DefaultLevelRules(), nil
	}
	out := make([]transform.LevelRule, 0, len(c.Levels))
	for _, r := range c.Levels {
		lr, err := transform.NewLevelRule(r.Level, r.Any...)
		if err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, nil
}
