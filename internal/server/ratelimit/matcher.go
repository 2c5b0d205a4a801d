package ratelimit

import (
	"strings"
)

// MatchEndpoint matches a request path and method to an endpoint
// configuration. Exact matches win over prefix matches; nil means no match.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	// Health and stats endpoints are unlimited
	if method == "GET" && (path == "/health" || path == "/stats") {
		return &EndpointConfig{Limit: 0}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") &&
			strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
