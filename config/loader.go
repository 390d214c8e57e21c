package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath é o YAML lido quando nenhum caminho é informado (opcional).
const DefaultPath = "configs/config.yaml"

var envPattern = regexp.MustCompile(`\$\{(\w+)(:([^}]*))?\}`)

// Load monta a configuração por prioridade: defaults → YAML → variáveis de ambiente.
//
// Antes de tudo o .env do diretório atual (se existir) é carregado no ambiente,
// sem sobrescrever variáveis já definidas. Um path explícito inexistente é erro;
// o DefaultPath ausente não.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	optional := false
	if path == "" {
		path = DefaultPath
		optional = true
	}
	if err := loadConfigFile(v, path, optional); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// aliases curtos: PORT e GEMINI_API_KEY (este já casa com gemini.api_key pelo replacer)
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// loadConfigFile lê o YAML, expande ${VAR:default} e entrega ao viper.
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := v.ReadConfig(strings.NewReader(expandEnv(string(raw)))); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// expandEnv troca ${VAR} e ${VAR:default}. Variável indefinida sem default fica como está.
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		if sub[2] != "" {
			return sub[3]
		}
		return match
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.trust_xff", false)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.concurrency_max", 100)
	v.SetDefault("server.concurrency_timeout", "0s")
	v.SetDefault("server.generation_timeout", "60s")
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.default_model", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 2048)
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.top_p", 0.95)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.max_rps", 0)
	v.SetDefault("gemini.burst", 1)

	v.SetDefault("rate_limit.requests_per_minute", 0)
	v.SetDefault("rate_limit.tiers.free", 0)
	v.SetDefault("rate_limit.tiers.basic", 0)
	v.SetDefault("rate_limit.tiers.premium", 0)
	v.SetDefault("rate_limit.tier_header", "X-Client-ID")
	v.SetDefault("rate_limit.cleanup_every", "2m")
	v.SetDefault("rate_limit.stats.enabled", false)
	v.SetDefault("rate_limit.stats.redis_addr", "")
	v.SetDefault("rate_limit.stats.redis_password", "")
	v.SetDefault("rate_limit.stats.redis_db", 0)
	v.SetDefault("rate_limit.stats.prefix", "contentgw:ratelimit")
	v.SetDefault("rate_limit.stats.ttl", "24h")
	v.SetDefault("rate_limit.stats.bucket", "minute")
	v.SetDefault("rate_limit.stats.track_keys", false)

	v.SetDefault("storage.output_dir", "generated_content")

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.addr", ":9464")
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.tracing.service_name", "content-gateway")
}
