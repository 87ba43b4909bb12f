package config

import "os"

var lookupEnv = os.LookupEnv

func parseEnv(cfg *Config) {
	if v, ok := lookupEnv("PORTAL_SERVER_URL"); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookupEnv("PORTAL_ADMIN_SECRET"); ok {
		cfg.AdminSecret = v
	}
}
