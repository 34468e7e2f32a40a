package config

import (
	"github.com/Ramsey-B/clover/internal/cache"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/probe"
	"github.com/Ramsey-B/clover/pkg/search"
)

// SearchConfig returns the search client settings
func (c *Config) SearchConfig() search.Config {
	return search.Config{
		URL:               c.SearchURL,
		Token:             c.SearchToken,
		Timeout:           c.SearchTimeout,
		Limit:             c.SearchLimit,
		Schemas:           c.SearchSchemas,
		SearchTypes:       c.SearchTypes,
		MaxRetries:        c.SearchMaxRetries,
		RetryBackoff:      c.SearchRetryBackoff,
		RequestsPerSecond: c.SearchRequestsPerSecond,
		MaxResponseSize:   c.SearchMaxResponseSize,
		ResultsExpression: c.SearchResultsExpression,
	}
}

// CacheConfig returns the response cache settings
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		TTL:      c.CacheTTL,
		Prefix:   c.CachePrefix,
	}
}

// EventsConfig returns the Kafka publisher settings
func (c *Config) EventsConfig() events.Config {
	return events.Config{
		Brokers: events.ParseBrokers(c.KafkaBrokers),
		Topic:   c.KafkaEventsTopic,
	}
}

// ProbeConfig returns the probe pacing. Probe requests use the search timeout.
func (c *Config) ProbeConfig() probe.Config {
	return probe.Config{
		Limit:          probe.DefaultLimit,
		InjectionDelay: c.ProbeDelay,
		EdgeDelay:      c.ProbeEdgeDelay,
		Timeout:        c.SearchTimeout,
		Schemas:        c.SearchSchemas,
	}
}
