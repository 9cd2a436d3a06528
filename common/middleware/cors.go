package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSConfig configures CORS for browser clients such as the officer dashboard.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

// CORS answers preflight requests and sets Access-Control headers for allowed
// origins. Origins may contain one wildcard, "*.example.com". With no allowed
// origins the middleware is a pass-through.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 300
	}
	c := cors.New(cors.Options{
		AllowedOrigins:       cfg.AllowedOrigins,
		AllowedMethods:       cfg.AllowedMethods,
		AllowedHeaders:       cfg.AllowedHeaders,
		ExposedHeaders:       []string{HeaderRequestID},
		MaxAge:               maxAge,
		OptionsSuccessStatus: http.StatusNoContent,
	})
	return c.Handler
}
