package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-resolver/internal/resolver"
)

// Validate checks the settings a command mode needs. Modes are "resolve",
// "batch" and "serve". Every problem is reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "resolve", "batch", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if err := resolver.Validate(c.Resolver); err != nil {
		errs = append(errs, err.Error())
	}

	st := c.Resolver.Stages
	if st.UsePlaces && c.Google.Key == "" {
		errs = append(errs, "google.key is required when resolver.stages.use_places is set")
	}
	if st.UseSearch && c.Serper.Key == "" {
		errs = append(errs, "serper.key is required when resolver.stages.use_search is set")
	}
	if st.UseDiscolike && c.Discolike.Key == "" {
		errs = append(errs, "discolike.key is required when resolver.stages.use_discolike is set")
	}
	if st.UseOcean && c.Ocean.Key == "" {
		errs = append(errs, "ocean.key is required when resolver.stages.use_ocean is set")
	}
	if st.UseScraping && c.Firecrawl.Enabled && c.Firecrawl.Key == "" {
		errs = append(errs, "firecrawl.key is required when firecrawl.enabled is set")
	}
	if !st.UsePlaces && !st.UseSearch && !st.UseDiscolike && !st.UseOcean {
		errs = append(errs, "at least one candidate stage must be enabled")
	}

	switch c.Store.Driver {
	case "", "none":
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, fmt.Sprintf("store.database_url is required for driver %s", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of sqlite, postgres, none", c.Store.Driver))
	}

	switch mode {
	case "batch":
		if c.Batch.MaxWorkers < 1 || c.Batch.MaxWorkers > 100 {
			errs = append(errs, fmt.Sprintf("batch.max_workers must be between 1 and 100, got %d", c.Batch.MaxWorkers))
		}
		switch strings.ToLower(c.Batch.OutputFormat) {
		case "json", "csv", "xlsx":
		default:
			errs = append(errs, fmt.Sprintf("batch.output_format %q is not one of json, csv, xlsx", c.Batch.OutputFormat))
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxConcurrent < 1 {
			errs = append(errs, "server.max_concurrent must be >= 1")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
