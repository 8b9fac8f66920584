package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/loginchat/authserver/internal/flagx"
	"github.com/loginchat/authserver/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Pointer fields distinguish "absent" from a zero value so a partial file
// only overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	DBMaxOpenConns               *int            `json:"db_max_open_conns"`
	DBMaxIdleConns               *int            `json:"db_max_idle_conns"`
	DBPoolRecycle                *timex.Duration `json:"db_pool_recycle"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	CookieSecure                 *bool           `json:"cookie_secure"`
	CookieSameSite               *string         `json:"cookie_samesite"`
	CookieDomain                 *string         `json:"cookie_domain"`
	CookieCSRFProtect            *bool           `json:"cookie_csrf_protect"`
	TrustedHosts                 []string        `json:"trusted_hosts"`
	TrustedHostExceptPaths       []string        `json:"trusted_host_except_paths"`
	AllowedOrigins               []string        `json:"allowed_origins"`
	LogLevel                     *string         `json:"log_level"`
}

// parseJSON overlays the file named by -c / -config onto config. No flag
// means nothing to load.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.DBMaxOpenConns, c.DBMaxOpenConns)
	setIf(&config.DBMaxIdleConns, c.DBMaxIdleConns)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.CookieSameSite, c.CookieSameSite)
	setIf(&config.CookieDomain, c.CookieDomain)
	setIf(&config.CookieCSRFProtect, c.CookieCSRFProtect)
	setIf(&config.LogLevel, c.LogLevel)

	if c.DBPoolRecycle != nil {
		config.DBPoolRecycle = c.DBPoolRecycle.Duration
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.TrustedHosts != nil {
		config.TrustedHosts = c.TrustedHosts
	}
	if c.TrustedHostExceptPaths != nil {
		config.TrustedHostExceptPaths = c.TrustedHostExceptPaths
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
