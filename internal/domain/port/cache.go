package port

import "context"

// ScrapeCache is a best-effort cache for scraped payloads. Implementations
// swallow and log their own errors: a broken cache never breaks a fetch.
type ScrapeCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
}
