package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/domain-resolver/internal/judge"
	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/resilience"
	"github.com/sells-group/domain-resolver/internal/resolver"
	"github.com/sells-group/domain-resolver/internal/scrape"
	"github.com/sells-group/domain-resolver/internal/stage"
	"github.com/sells-group/domain-resolver/internal/store"
	"github.com/sells-group/domain-resolver/internal/verify"
	anthropicpkg "github.com/sells-group/domain-resolver/pkg/anthropic"
	"github.com/sells-group/domain-resolver/pkg/discolike"
	"github.com/sells-group/domain-resolver/pkg/firecrawl"
	"github.com/sells-group/domain-resolver/pkg/google"
	"github.com/sells-group/domain-resolver/pkg/jina"
	"github.com/sells-group/domain-resolver/pkg/ocean"
	"github.com/sells-group/domain-resolver/pkg/serper"
)

// resolverEnv holds the resolver and the resources the resolve, batch and
// serve commands share.
type resolverEnv struct {
	Resolver *resolver.Resolver
	Guard    *stage.Guard
	Store    store.Store // nil when the cache is disabled
}

// Close releases resources held by the environment.
func (e *resolverEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initResolver validates config for mode, opens the store and builds the
// resolver with every collaborator whose stage is enabled. Callers should
// defer env.Close().
func initResolver(ctx context.Context, mode string) (*resolverEnv, error) {
	if cfg.ResolverProfile != "" {
		rc, err := resolver.LoadProfile(cfg.ResolverProfile)
		if err != nil {
			return nil, err
		}
		cfg.Resolver = rc
	}

	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	guard := stage.NewGuard(
		resilience.NewRetryPolicy(cfg.Resilience.MaxAttempts, cfg.Resilience.InitialBackoffMs, cfg.Resilience.MaxBackoffMs),
		resilience.NewBreakerConfig(cfg.Resilience.FailureThreshold, cfg.Resilience.ResetTimeoutSecs),
	)

	res := resolver.New(cfg.Resolver, buildDeps(guard))

	zap.L().Info("resolver initialized",
		zap.String("mode", mode),
		zap.String("store", storeDriver()),
		zap.Bool("places", cfg.Resolver.Stages.UsePlaces),
		zap.Bool("search", cfg.Resolver.Stages.UseSearch),
		zap.Bool("scraping", cfg.Resolver.Stages.UseScraping),
		zap.Bool("judge", cfg.Anthropic.Key != ""),
		zap.Bool("discolike", cfg.Resolver.Stages.UseDiscolike),
		zap.Bool("ocean", cfg.Resolver.Stages.UseOcean),
	)

	return &resolverEnv{Resolver: res, Guard: guard, Store: st}, nil
}

// buildDeps constructs API clients for the configured collaborators. A
// collaborator with no key stays nil and its stage is skipped.
func buildDeps(guard *stage.Guard) resolver.Deps {
	deps := resolver.Deps{Guard: guard}

	if cfg.Google.Key != "" {
		deps.Places = stage.GooglePlaces{Client: google.NewClient(cfg.Google.Key,
			google.WithBaseURL(cfg.Google.BaseURL),
			google.WithRateLimit(cfg.Google.RateLimit),
		)}
	}

	if cfg.Serper.Key != "" {
		deps.Search = stage.SerperSearch{Client: serper.NewClient(cfg.Serper.Key,
			serper.WithBaseURL(cfg.Serper.BaseURL),
			serper.WithRateLimit(cfg.Serper.RateLimit),
			serper.WithLocale(cfg.Serper.Country, cfg.Serper.Language),
		)}
	}

	if cfg.Resolver.Stages.UseScraping {
		scrapers := []scrape.Scraper{scrape.NewLocalScraper()}
		if cfg.Jina.Enabled {
			scrapers = append(scrapers, scrape.NewJinaAdapter(jina.NewClient(cfg.Jina.Key,
				jina.WithBaseURL(cfg.Jina.BaseURL),
				jina.WithRateLimit(cfg.Jina.RateLimit),
				jina.WithRetry(cfg.Resilience.MaxAttempts, time.Duration(cfg.Resilience.InitialBackoffMs)*time.Millisecond),
			)))
		}
		if cfg.Firecrawl.Enabled {
			scrapers = append(scrapers, scrape.NewFirecrawlAdapter(firecrawl.NewClient(cfg.Firecrawl.Key,
				firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL),
				firecrawl.WithRateLimit(cfg.Firecrawl.RateLimit),
			)))
		}
		deps.Fetcher = stage.ChainFetcher{Chain: scrape.NewChain(scrape.NewPathMatcher(nil), scrapers...)}
	}

	if cfg.Anthropic.Key != "" {
		var opts []anthropicpkg.Option
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, anthropicpkg.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		deps.Judge = judge.New(anthropicpkg.NewClient(cfg.Anthropic.Key, opts...),
			judge.WithModel(cfg.Anthropic.Model),
			judge.WithMaxChars(cfg.Anthropic.MaxChars),
		)
	}

	if cfg.Discolike.Key != "" {
		deps.Discolike = stage.DiscolikeEnricher{Client: discolike.NewClient(cfg.Discolike.Key,
			discolike.WithBaseURL(cfg.Discolike.BaseURL),
			discolike.WithRateLimit(cfg.Discolike.RateLimit),
		)}
	}

	if cfg.Ocean.Key != "" {
		deps.Ocean = stage.OceanEnricher{Client: ocean.NewClient(cfg.Ocean.Key,
			ocean.WithBaseURL(cfg.Ocean.BaseURL),
			ocean.WithRateLimit(cfg.Ocean.RateLimit),
		)}
	}

	deps.DNS = verify.NewDNSVerifier(
		verify.WithTimeout(model.Timeout(cfg.Resolver.Timeouts.DNSSecs, 5*time.Second)),
	)

	return deps
}

// initStore opens the result cache for the configured driver. It returns a
// nil store when caching is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func storeDriver() string {
	if cfg.Store.Driver == "" {
		return "none"
	}
	return cfg.Store.Driver
}
