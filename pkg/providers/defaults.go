package providers

// withDefaultParams layers configured overlay params over provider defaults.
// Configured entries always win, including nil entries that delete a
// defaulted key.
func withDefaultParams(defaults map[string]string, configured map[string]*string) map[string]*string {
	out := make(map[string]*string, len(defaults)+len(configured))
	for k, v := range defaults {
		v := v
		out[k] = &v
	}
	for k, v := range configured {
		out[k] = v
	}
	return out
}

// effectiveAdditionalConfig resolves the additionalConfig a client would see
// after client-level config shadows the provider-level one.
func effectiveAdditionalConfig(config ProviderConfig, client ProviderClientConfig) map[string]any {
	if client.AdditionalConfig != nil {
		return client.AdditionalConfig
	}
	return config.AdditionalConfig
}

func additionalConfigString(additionalConfig map[string]any, key string) string {
	if additionalConfig == nil {
		return ""
	}
	v, _ := additionalConfig[key].(string)
	return v
}
