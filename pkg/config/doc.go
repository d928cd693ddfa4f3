// Package config loads configuration structs from environment variables,
// with an optional .env file for local development.
//
// Struct fields declare their sources via env tags:
//
//	type AuthConfig struct {
//	    InitTimeout time.Duration `env:"AUTH_INIT_TIMEOUT" envDefault:"10s"`
//	    APIKey      string        `env:"AUTH_API_KEY,required"`
//	}
//
//	var cfg AuthConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
package config
