package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/flagx"
	"github.com/dmitrijs2005/wordrush/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted. Only
// fields present with a non-zero value override the current settings.
type JsonConfig struct {
	EndpointAddrHTTP    string `json:"endpoint_addr_http"`
	EndpointAddrGRPC    string `json:"endpoint_addr_grpc"`
	EndpointAddrMetrics string `json:"endpoint_addr_metrics"`
	DatabaseDSN         string `json:"database_dsn"`
	LogLevel            string `json:"log_level"`

	AccessTokenSecret       string         `json:"access_token_secret"`
	AccessTokenTTL          timex.Duration `json:"access_token_ttl"`
	TokenIssuer             string         `json:"token_issuer"`
	RegistrationTokenSecret string         `json:"email_registration_token_secret"`
	RegistrationTokenTTL    timex.Duration `json:"email_registration_token_ttl"`
	TokenMaxAge             timex.Duration `json:"token_max_age"`

	TokenStore    string `json:"token_store"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	EasyWordsToMediumLevel int `json:"easy_words_to_medium_level"`
	MediumWordsToHardLevel int `json:"medium_words_to_hard_level"`
	TierHistoryLimit       int `json:"tier_history_limit"`
	ProfileHistoryLimit    int `json:"profile_history_limit"`
	WordsPerRound          int `json:"words_per_round"`

	Argon2Memory  uint32 `json:"argon2_memory_kib"`
	Argon2Time    uint32 `json:"argon2_time"`
	Argon2Threads uint8  `json:"argon2_threads"`

	NotifyDriver        string `json:"notify_driver"`
	MailFrom            string `json:"mail_from"`
	SMTPHost            string `json:"smtp_host"`
	SMTPPort            int    `json:"smtp_port"`
	SMTPUser            string `json:"smtp_user"`
	SMTPPassword        string `json:"smtp_password"`
	CallbackURLTemplate string `json:"callback_url_template"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson overlays the file named by -c/-config (or $CONFIG) onto config.
// Nothing happens when no path is given.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrMetrics, c.EndpointAddrMetrics)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setDuration(&config.AccessTokenTTL, c.AccessTokenTTL)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.RegistrationTokenSecret, c.RegistrationTokenSecret)
	setDuration(&config.RegistrationTokenTTL, c.RegistrationTokenTTL)
	setDuration(&config.TokenMaxAge, c.TokenMaxAge)

	setString(&config.TokenStore, c.TokenStore)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setNumber(&config.RedisDB, c.RedisDB)

	setNumber(&config.EasyWordsToMediumLevel, c.EasyWordsToMediumLevel)
	setNumber(&config.MediumWordsToHardLevel, c.MediumWordsToHardLevel)
	setNumber(&config.TierHistoryLimit, c.TierHistoryLimit)
	setNumber(&config.ProfileHistoryLimit, c.ProfileHistoryLimit)
	setNumber(&config.WordsPerRound, c.WordsPerRound)

	setNumber(&config.Argon2Memory, c.Argon2Memory)
	setNumber(&config.Argon2Time, c.Argon2Time)
	setNumber(&config.Argon2Threads, c.Argon2Threads)

	setString(&config.NotifyDriver, c.NotifyDriver)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.SMTPHost, c.SMTPHost)
	setNumber(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.CallbackURLTemplate, c.CallbackURLTemplate)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

func setNumber[T int | uint32 | uint8](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}
