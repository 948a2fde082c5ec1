package platform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override adjusts a registered platform or declares a new one. Unset fields
// leave the registered value unchanged.
type Override struct {
	Tag           Tag        `yaml:"tag"`
	Name          string     `yaml:"name"`
	Domains       []string   `yaml:"domains"`
	URLPatterns   []string   `yaml:"url_patterns"`
	Enabled       *bool      `yaml:"enabled"`
	Selectors     *Selectors `yaml:"selectors"`
	UserRole      string     `yaml:"user_role"`
	AssistantRole string     `yaml:"assistant_role"`
	TokenLimit    int        `yaml:"token_limit"`
	Aggressive    *bool      `yaml:"aggressive"`
}

// OverrideFile is the on-disk layout of a platforms file.
type OverrideFile struct {
	Platforms []Override `yaml:"platforms"`
}

// LoadOverrides reads a YAML platforms file.
func LoadOverrides(path string) ([]Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform: read overrides: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes YAML platform overrides.
func ParseOverrides(data []byte) ([]Override, error) {
	var f OverrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("platform: parse overrides: %w", err)
	}
	return f.Platforms, nil
}

// Apply merges overrides into the registry. Known tags are patched in place;
// unknown tags are appended at the lowest priority. The registry is left
// untouched when any override is invalid.
func (r *Registry) Apply(overrides []Override) error {
	next := &Registry{configs: make([]*Config, len(r.configs))}
	for i, c := range r.configs {
		next.configs[i] = c.clone()
	}
	for _, o := range overrides {
		var cfg Config
		if c, ok := next.Lookup(o.Tag); ok {
			cfg = *c.clone()
		} else {
			cfg = Config{Tag: o.Tag, Name: string(o.Tag)}
		}
		o.patch(&cfg)
		if err := next.Register(cfg); err != nil {
			return err
		}
	}
	r.configs = next.configs
	return nil
}

func (o Override) patch(c *Config) {
	if o.Name != "" {
		c.Name = o.Name
	}
	if o.Domains != nil {
		c.Domains = o.Domains
	}
	if o.URLPatterns != nil {
		c.URLPatterns = o.URLPatterns
	}
	if o.Enabled != nil {
		c.Enabled = *o.Enabled
	}
	if o.Selectors != nil {
		if o.Selectors.Primary != "" {
			c.Selectors.Primary = o.Selectors.Primary
		}
		if o.Selectors.Fallback != nil {
			c.Selectors.Fallback = o.Selectors.Fallback
		}
		if o.Selectors.Content != "" {
			c.Selectors.Content = o.Selectors.Content
		}
	}
	if o.UserRole != "" {
		c.UserRole = o.UserRole
	}
	if o.AssistantRole != "" {
		c.AssistantRole = o.AssistantRole
	}
	if o.TokenLimit != 0 {
		c.TokenLimit = o.TokenLimit
	}
	if o.Aggressive != nil {
		c.Aggressive = *o.Aggressive
	}
}
