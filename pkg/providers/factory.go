package providers

import (
	"context"
	"errors"
	"strings"
)

// Kind is a closed enumeration over the built-in provider types. Anything
// the registry does not recognize is KindCustom and runs on the generic
// engine unmodified.
type Kind int

const (
	KindCustom Kind = iota
	KindActiveDirectory
	KindApple
	KindBitbucket
	KindBoxySAML
	KindDiscord
	KindFacebook
	KindGithub
	KindGitlab
	KindGoogleWorkspaces
	KindGoogle
	KindLinkedin
	KindOkta
	KindTwitter
)

// kindPrefixes maps a thirdPartyId prefix to its kind. Matching is by
// prefix so multiple instances of one provider type can coexist under ids
// like "okta-eu". Longer prefixes are listed first so "google-workspaces"
// never routes to the plain Google constructor.
var kindPrefixes = []struct {
	prefix string
	kind   Kind
}{
	{"active-directory", KindActiveDirectory},
	{"apple", KindApple},
	{"bitbucket", KindBitbucket},
	{"boxy-saml", KindBoxySAML},
	{"discord", KindDiscord},
	{"facebook", KindFacebook},
	{"github", KindGithub},
	{"gitlab", KindGitlab},
	{"google-workspaces", KindGoogleWorkspaces},
	{"google", KindGoogle},
	{"linkedin", KindLinkedin},
	{"okta", KindOkta},
	{"twitter", KindTwitter},
}

// KindOf resolves a thirdPartyId to a provider kind.
func KindOf(thirdPartyID string) Kind {
	for _, entry := range kindPrefixes {
		if strings.HasPrefix(thirdPartyID, entry.prefix) {
			return entry.kind
		}
	}
	return KindCustom
}

// NewProvider constructs the provider instance for the input's thirdPartyId:
// the generic engine wrapped by the built-in decorator for its kind, wrapped
// last by the developer-supplied override (so developer customizations win).
//
// Only Apple can fail here: its signing-key material is validated eagerly so
// a bad key surfaces at construction rather than at first token exchange.
func NewProvider(input ProviderInput) (*TypeProvider, error) {
	var (
		provider *TypeProvider
		err      error
	)

	switch KindOf(input.Config.ThirdPartyID) {
	case KindActiveDirectory:
		provider = activeDirectoryProvider(input)
	case KindApple:
		provider, err = appleProvider(input)
	case KindBitbucket:
		provider = bitbucketProvider(input)
	case KindBoxySAML:
		provider = boxySAMLProvider(input)
	case KindDiscord:
		provider = discordProvider(input)
	case KindFacebook:
		provider = facebookProvider(input)
	case KindGithub:
		provider = githubProvider(input)
	case KindGitlab:
		provider = gitlabProvider(input)
	case KindGoogleWorkspaces:
		provider = googleWorkspacesProvider(input)
	case KindGoogle:
		provider = googleProvider(input)
	case KindLinkedin:
		provider = linkedinProvider(input)
	case KindOkta:
		provider = oktaProvider(input)
	case KindTwitter:
		provider = twitterProvider(input)
	default:
		provider = newCustomProvider(input)
	}
	if err != nil {
		return nil, err
	}

	if input.Override != nil {
		provider = input.Override(provider)
	}
	return provider, nil
}

// FetchAndSetConfig resolves the client-specific config, performs OIDC
// discovery for any endpoints still unset, and publishes the result on the
// provider. It writes provider.Config exactly once, before the instance is
// used; the flow methods read from there.
func FetchAndSetConfig(ctx context.Context, provider *TypeProvider, clientType string) error {
	cfg, err := provider.GetConfigForClientType(ctx, clientType)
	if err != nil {
		return err
	}
	if err := discoverOIDCEndpoints(ctx, &cfg); err != nil {
		return err
	}
	provider.Config = cfg
	return nil
}

// FindAndCreateProviderInstance finds the provider input matching
// thirdPartyId, constructs the instance and resolves its config. When
// several inputs carry the same thirdPartyId, the first one whose client
// list can satisfy the requested clientType wins; a ClientTypeNotFoundError
// moves on to the next candidate.
func FindAndCreateProviderInstance(ctx context.Context, inputs []ProviderInput, thirdPartyID string, clientType string) (*TypeProvider, error) {
	found := false
	for _, input := range inputs {
		if input.Config.ThirdPartyID != thirdPartyID {
			continue
		}
		found = true

		provider, err := NewProvider(input)
		if err != nil {
			return nil, err
		}
		if err := FetchAndSetConfig(ctx, provider, clientType); err != nil {
			var notFound *ClientTypeNotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}
		return provider, nil
	}

	if found {
		return nil, &ClientTypeNotFoundError{ClientType: clientType}
	}
	return nil, newConfigError("the third party provider %s seems to be missing from the backend configs", thirdPartyID)
}
