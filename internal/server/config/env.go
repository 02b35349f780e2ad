package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays environment variables onto config. Durations accept
// Go syntax ("90m") or a bare integer number of minutes.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDR":                       &config.EndpointAddrHTTP,
		"GRPC_ADDR":                       &config.EndpointAddrGRPC,
		"METRICS_ADDR":                    &config.EndpointAddrMetrics,
		"DATABASE_DSN":                    &config.DatabaseDSN,
		"LOG_LEVEL":                       &config.LogLevel,
		"ACCESS_TOKEN_SECRET":             &config.AccessTokenSecret,
		"TOKEN_ISSUER":                    &config.TokenIssuer,
		"EMAIL_REGISTRATION_TOKEN_SECRET": &config.RegistrationTokenSecret,
		"TOKEN_STORE":                     &config.TokenStore,
		"REDIS_ADDR":                      &config.RedisAddr,
		"REDIS_PASSWORD":                  &config.RedisPassword,
		"NOTIFY_DRIVER":                   &config.NotifyDriver,
		"MAIL_FROM":                       &config.MailFrom,
		"SMTP_HOST":                       &config.SMTPHost,
		"SMTP_USER":                       &config.SMTPUser,
		"SMTP_PASSWORD":                   &config.SMTPPassword,
		"CALLBACK_URL_TEMPLATE":           &config.CallbackURLTemplate,
		"S3_ROOT_USER":                    &config.S3RootUser,
		"S3_ROOT_PASSWORD":                &config.S3RootPassword,
		"S3_BUCKET":                       &config.S3Bucket,
		"S3_REGION":                       &config.S3Region,
		"S3_BASE_ENDPOINT":                &config.S3BaseEndpoint,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"REDIS_DB":                   &config.RedisDB,
		"EASY_WORDS_TO_MEDIUM_LEVEL": &config.EasyWordsToMediumLevel,
		"MEDIUM_WORDS_TO_HARD_LEVEL": &config.MediumWordsToHardLevel,
		"TIER_HISTORY_LIMIT":         &config.TierHistoryLimit,
		"PROFILE_HISTORY_LIMIT":      &config.ProfileHistoryLimit,
		"SMTP_PORT":                  &config.SMTPPort,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":             &config.AccessTokenTTL,
		"EMAIL_REGISTRATION_TOKEN_TTL": &config.RegistrationTokenTTL,
		"TOKEN_MAX_AGE":                &config.TokenMaxAge,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	return nil
}

func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(v)
}
