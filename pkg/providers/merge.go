package providers

// MergeConfig merges a core-supplied provider config over a statically
// configured one. Core wins for every scalar field it sets. Two fields merge
// differently on purpose:
//
//   - UserInfoMap is deep-merged per sub-map, core entries overriding static
//     ones field by field.
//   - Clients is merged by clientType key. Static clients whose clientType
//     does not appear in core are kept; when the same clientType appears in
//     both, the core client record replaces the static one wholesale (static
//     fields for that client are dropped, not mixed in).
//
// Hook functions cannot arrive from the core, so the static ones survive.
func MergeConfig(staticConfig ProviderConfig, coreConfig ProviderConfig) ProviderConfig {
	result := staticConfig

	if coreConfig.ThirdPartyID != "" {
		result.ThirdPartyID = coreConfig.ThirdPartyID
	}
	if coreConfig.Name != "" {
		result.Name = coreConfig.Name
	}
	if coreConfig.Scope != nil {
		result.Scope = coreConfig.Scope
	}
	if coreConfig.AuthorizationEndpoint != "" {
		result.AuthorizationEndpoint = coreConfig.AuthorizationEndpoint
	}
	if coreConfig.AuthorizationEndpointQueryParams != nil {
		result.AuthorizationEndpointQueryParams = coreConfig.AuthorizationEndpointQueryParams
	}
	if coreConfig.TokenEndpoint != "" {
		result.TokenEndpoint = coreConfig.TokenEndpoint
	}
	if coreConfig.TokenEndpointBodyParams != nil {
		result.TokenEndpointBodyParams = coreConfig.TokenEndpointBodyParams
	}
	if coreConfig.UserInfoEndpoint != "" {
		result.UserInfoEndpoint = coreConfig.UserInfoEndpoint
	}
	if coreConfig.UserInfoEndpointQueryParams != nil {
		result.UserInfoEndpointQueryParams = coreConfig.UserInfoEndpointQueryParams
	}
	if coreConfig.UserInfoEndpointHeaders != nil {
		result.UserInfoEndpointHeaders = coreConfig.UserInfoEndpointHeaders
	}
	if coreConfig.JWKSURI != "" {
		result.JWKSURI = coreConfig.JWKSURI
	}
	if coreConfig.OIDCDiscoveryEndpoint != "" {
		result.OIDCDiscoveryEndpoint = coreConfig.OIDCDiscoveryEndpoint
	}
	if coreConfig.AdditionalConfig != nil {
		result.AdditionalConfig = coreConfig.AdditionalConfig
	}

	result.UserInfoMap.FromIDTokenPayload = mergeUserFields(staticConfig.UserInfoMap.FromIDTokenPayload, coreConfig.UserInfoMap.FromIDTokenPayload)
	result.UserInfoMap.FromUserInfoAPI = mergeUserFields(staticConfig.UserInfoMap.FromUserInfoAPI, coreConfig.UserInfoMap.FromUserInfoAPI)

	// Client list merge keyed by clientType. Order: static clients first (in
	// their original order, possibly replaced), then core-only clients.
	mergedClients := make([]ProviderClientConfig, len(staticConfig.Clients))
	copy(mergedClients, staticConfig.Clients)
	for _, coreClient := range coreConfig.Clients {
		replaced := false
		for i, staticClient := range mergedClients {
			if staticClient.ClientType == coreClient.ClientType {
				mergedClients[i] = coreClient
				replaced = true
				break
			}
		}
		if !replaced {
			mergedClients = append(mergedClients, coreClient)
		}
	}
	result.Clients = mergedClients

	return result
}

func mergeUserFields(static UserFields, core UserFields) UserFields {
	merged := static
	if core.UserID != "" {
		merged.UserID = core.UserID
	}
	if core.Email != "" {
		merged.Email = core.Email
	}
	if core.EmailVerified != "" {
		merged.EmailVerified = core.EmailVerified
	}
	return merged
}

// MergeProvidersFromCoreAndStatic computes the authoritative provider list
// for a tenant.
//
// When the core has no provider configs for the tenant, the static list is
// returned unchanged apart from the tenant id stamp. Once the core has at
// least one provider for the tenant it becomes authoritative: the result
// contains exactly the core providers (merged with a static config of the
// same thirdPartyId when one exists, carrying over its override), and static
// providers absent from the core are dropped.
func MergeProvidersFromCoreAndStatic(tenantID string, providerConfigsFromCore []ProviderConfig, providerInputsFromStatic []ProviderInput) []ProviderInput {
	if len(providerConfigsFromCore) == 0 {
		merged := make([]ProviderInput, 0, len(providerInputsFromStatic))
		for _, input := range providerInputsFromStatic {
			input.TenantID = tenantID
			merged = append(merged, input)
		}
		return merged
	}

	merged := make([]ProviderInput, 0, len(providerConfigsFromCore))
	for _, coreConfig := range providerConfigsFromCore {
		input := ProviderInput{
			TenantID: tenantID,
			Config:   coreConfig,
		}
		for _, staticInput := range providerInputsFromStatic {
			if staticInput.Config.ThirdPartyID == coreConfig.ThirdPartyID {
				input.Config = MergeConfig(staticInput.Config, coreConfig)
				input.Override = staticInput.Override
				break
			}
		}
		merged = append(merged, input)
	}
	return merged
}
