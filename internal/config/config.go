package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

type Game struct {
	Rows int `yaml:"rows" env-default:"20"`
	Cols int `yaml:"cols" env-default:"50"`

	MatchBonus   int `yaml:"match-bonus" env-default:"10"`
	WordBonus    int `yaml:"word-bonus" env-default:"50"`
	WordPenalty  int `yaml:"word-penalty" env-default:"10"`
	ImageBonus   int `yaml:"image-bonus" env-default:"200"`
	ImagePenalty int `yaml:"image-penalty" env-default:"20"`

	ImageAnswer string `yaml:"image-answer" env-default:"TIMOTHY LEARY"`

	PlacementRetries int     `yaml:"placement-retries" env-default:"50"`
	BufferRadius     int     `yaml:"buffer-radius" env-default:"0"`
	TargetDensity    float64 `yaml:"target-density" env-default:"0.25"`

	WordSourceURL string `yaml:"word-source-url" env-default:"https://random-word-api.herokuapp.com/word"`
	WordFetchSize int    `yaml:"word-fetch-size" env-default:"500"`
	MinWordLen    int    `yaml:"min-word-len" env-default:"5"`
	MaxWordLen    int    `yaml:"max-word-len" env-default:"15"`

	FlipBackDelay time.Duration `yaml:"flip-back-delay" env-default:"1s"`
	SweepInterval time.Duration `yaml:"sweep-interval" env-default:"10m"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// TotalCards - deck size for the configured board, one card per cell.
func (that *Game) TotalCards() int {
	return that.Rows * that.Cols
}
