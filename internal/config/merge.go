package config

import "dario.cat/mergo"

// mergeWithDefaults overlays an operator-supplied config onto the built-in
// defaults, letting the operator override only the fields they care about.
// Non-empty slices on the override side replace the default rather than
// append to it; the Specialists map is merged key by key, override winning.
func mergeWithDefaults(override *GatewayYAMLConfig) (*GatewayYAMLConfig, error) {
	merged := defaultConfig()
	if override == nil {
		return merged, nil
	}
	if err := mergo.Merge(merged, override, mergo.WithOverride); err != nil {
		return nil, err
	}
	// Maps need an explicit override-wins merge: mergo.WithOverride on a map
	// field merges key by key rather than replacing wholesale, which is what
	// we want for Specialists (operators typically add/replace a few domains,
	// not restate all six).
	if override.Specialists != nil {
		if merged.Specialists == nil {
			merged.Specialists = map[string]SpecialistEntry{}
		}
		for domain, entry := range override.Specialists {
			merged.Specialists[domain] = entry
		}
	}
	return merged, nil
}
