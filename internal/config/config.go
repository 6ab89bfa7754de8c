// Package config loads the policy/profile catalog: a small TOML (or YAML)
// file naming every policy_ref/profile_ref the core is allowed to see and
// the AmbiguityPolicy each profile selects, plus spf13/viper environment
// overrides. Grounded on the teacher's internal/formula.Parser
// (toml.Unmarshal with JSON/TOML dual parsing) and cmd/bd/config.go's
// viper-backed config.yaml reader.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/resolver"
)

// Profile names one profile_ref's ambiguity handling.
type Profile struct {
	Ref       string `toml:"ref" yaml:"ref"`
	Ambiguity string `toml:"ambiguity" yaml:"ambiguity"`
}

// Policy names one policy_ref. It carries no fields of its own yet; its
// presence in the catalog is what CommitPolicyHook implementations key
// CommitPolicyHook checks on.
type Policy struct {
	Ref string `toml:"ref" yaml:"ref"`
}

// Catalog is the decoded policy/profile catalog.
type Catalog struct {
	Policies map[string]Policy  `toml:"policies" yaml:"policies"`
	Profiles map[string]Profile `toml:"profiles" yaml:"profiles"`
}

// Default ambiguity strings accepted in a profile's "ambiguity" field.
const (
	ambiguityFailFast            = "fail_fast"
	ambiguityChooseDeterministic = "choose_deterministic"
	ambiguityRouteForApproval    = "route_for_approval"
)

// Load reads a catalog file, dispatching on extension: ".toml" uses
// BurntSushi/toml, anything else (".yaml", ".yml") uses yaml.v3.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errtax.Wrap(errtax.IO, err, "config: read catalog %s", path)
	}

	var cat Catalog
	if strings.HasSuffix(path, ".toml") {
		if _, err := toml.Decode(string(data), &cat); err != nil {
			return nil, errtax.Wrap(errtax.Serialization, err, "config: decode toml catalog %s", path)
		}
	} else {
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, errtax.Wrap(errtax.Serialization, err, "config: decode yaml catalog %s", path)
		}
	}
	if cat.Policies == nil {
		cat.Policies = map[string]Policy{}
	}
	if cat.Profiles == nil {
		cat.Profiles = map[string]Profile{}
	}
	return &cat, nil
}

// BindEnvOverrides wires viper to read ETTLE_-prefixed environment
// variables, mirroring the teacher's config.yaml + environment layering.
func BindEnvOverrides(v *viper.Viper) {
	v.SetEnvPrefix("ETTLE")
	v.AutomaticEnv()
}

// DefaultProfileRef returns the ETTLE_DEFAULT_PROFILE override if viper has
// it set, else "".
func DefaultProfileRef(v *viper.Viper) string {
	return v.GetString("default_profile")
}

// AmbiguityPolicyFor resolves profileRef to the resolver.AmbiguityPolicy it
// names. An unknown profile_ref or an unrecognized ambiguity string fails
// PolicyDenied (a commit should not silently default its ambiguity
// handling).
func (c *Catalog) AmbiguityPolicyFor(profileRef string) (resolver.AmbiguityPolicy, error) {
	p, ok := c.Profiles[profileRef]
	if !ok {
		return 0, errtax.New(errtax.PolicyDenied, "unknown profile_ref %q", profileRef)
	}
	switch p.Ambiguity {
	case ambiguityFailFast, "":
		return resolver.FailFast, nil
	case ambiguityChooseDeterministic:
		return resolver.ChooseDeterministic, nil
	case ambiguityRouteForApproval:
		return resolver.RouteForApproval, nil
	default:
		return 0, errtax.New(errtax.PolicyDenied, "profile %q names unknown ambiguity %q", profileRef, p.Ambiguity)
	}
}

// HasPolicy reports whether policyRef is declared in the catalog.
func (c *Catalog) HasPolicy(policyRef string) bool {
	_, ok := c.Policies[policyRef]
	return ok
}

// String renders a short human summary, used by CLI diagnostics.
func (c *Catalog) String() string {
	return fmt.Sprintf("catalog{policies=%d profiles=%d}", len(c.Policies), len(c.Profiles))
}
