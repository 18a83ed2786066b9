package resolver

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/domain-resolver/internal/model"
)

// LoadProfile reads a resolver profile from a YAML file. The file has a
// top-level "resolver" key; unset fields keep their defaults.
func LoadProfile(path string) (model.ResolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ResolverConfig{}, eris.Wrapf(err, "resolver: read profile %s", path)
	}

	wrapper := struct {
		Resolver model.ResolverConfig `yaml:"resolver"`
	}{Resolver: model.DefaultResolverConfig()}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return model.ResolverConfig{}, eris.Wrap(err, "resolver: parse profile")
	}

	cfg := wrapper.Resolver
	if err := Validate(cfg); err != nil {
		return model.ResolverConfig{}, err
	}
	return cfg, nil
}

// Validate checks that thresholds are ordered and on the 0-100 scale.
func Validate(cfg model.ResolverConfig) error {
	t := cfg.Thresholds
	switch {
	case t.AutoAccept <= 0 || t.AutoAccept > 100:
		return eris.Errorf("resolver: auto_accept %.1f out of range (0,100]", t.AutoAccept)
	case t.ManualReview <= 0 || t.ManualReview > 100:
		return eris.Errorf("resolver: manual_review %.1f out of range (0,100]", t.ManualReview)
	case t.ManualReview > t.AutoAccept:
		return eris.Errorf("resolver: manual_review %.1f above auto_accept %.1f", t.ManualReview, t.AutoAccept)
	}
	return nil
}
