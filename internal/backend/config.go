package backend

import (
	"errors"
	"fmt"

	"billbook/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		CacheBackend:   CacheType(appConfig.CacheBackend),
		RedisAddr:      appConfig.RedisAddr,
		ReportCacheTTL: appConfig.ReportCacheTTL,

		SpreadsheetID:   appConfig.GoogleSpreadsheetID,
		SheetName:       appConfig.GoogleSheetName,
		CredentialsJSON: appConfig.GoogleServiceAccountJSON,
		CredentialsFile: appConfig.GoogleServiceAccountFile,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP URL is set")
	}

	if c.CacheBackend == "" {
		c.CacheBackend = MemoryCache
	}
	if !c.CacheBackend.IsValid() {
		return fmt.Errorf("invalid cache backend: %s", c.CacheBackend)
	}
	if c.CacheBackend == RedisCache && c.RedisAddr == "" {
		return errors.New("redis address is required for redis cache backend")
	}
	return nil
}

// LedgerEnabled reports whether a spreadsheet is configured.
func (c Config) LedgerEnabled() bool {
	return c.SpreadsheetID != ""
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
