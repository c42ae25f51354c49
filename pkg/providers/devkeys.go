package providers

import "strings"

// Development OAuth credentials let a packaged demo app complete a real
// sign-in without developer-owned provider credentials: the authorization
// request is routed through a hosted redirect proxy that owns the demo
// client's registered callback.
const (
	// DevKeyIdentifier marks a client id as a development credential. The
	// real client id follows the marker.
	DevKeyIdentifier = "4398792-"

	devOAuthAuthorisationURL = "https://supertokens.io/dev/oauth/redirect-to-provider"
	devOAuthRedirectURL      = "https://supertokens.io/dev/oauth/redirect-to-app"
)

// devOAuthClientIDs are the shared demo client ids bundled with the SDK.
// They are recognized as development credentials without the prefix marker.
var devOAuthClientIDs = []string{
	"1060725074195-kmeum4crr01uirfl2op9kd5acmi9jutn.apps.googleusercontent.com", // google
	"467101b197249757c71f", // github
}

// IsUsingDevelopmentClientID reports whether the client id is a development
// credential, either via the prefix marker or the fixed demo-id allow list.
func IsUsingDevelopmentClientID(clientID string) bool {
	if strings.HasPrefix(clientID, DevKeyIdentifier) {
		return true
	}
	for _, id := range devOAuthClientIDs {
		if clientID == id {
			return true
		}
	}
	return false
}

// GetActualClientIDFromDevelopmentClientID strips the development marker,
// returning the real client id. Non-prefixed ids (including the fixed demo
// ids) pass through unchanged.
func GetActualClientIDFromDevelopmentClientID(clientID string) string {
	return strings.TrimPrefix(clientID, DevKeyIdentifier)
}
