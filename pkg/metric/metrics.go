package metric

import (
	"net/http"
	"time"
)

type (
	Factory interface {
		HTTP() HTTP
		Transaction() Transaction
		Cache() Cache
		RateLimit() RateLimit
		Events() Events
		Handler() http.Handler
	}

	HTTP interface {
		Request(method, path string, status int, duration time.Duration)
		SlowRequest(method, path string, status int, duration time.Duration)
	}

	Transaction interface {
		ObserveDuration(operation string, duration time.Duration)
		IncrementRetries(operation string)
		IncrementFailures(operation string)
	}

	Cache interface {
		Hit(cacheType string)
		Miss(cacheType string)
		Eviction(cacheType string, reason string)
		Size(cacheType string, size int)
	}

	RateLimit interface {
		Admitted(route string)
		Denied(route string)
		TrackedKeys(count int)
	}

	Events interface {
		Published(topic string)
		PublishFailed(topic string, reason string)
		ObservePublishDuration(topic string, duration time.Duration)
	}
)
