package discourse

// AuthType identifies which primary authentication scheme a credential uses.
type AuthType string

const (
	// AuthNone sends no authentication headers.
	AuthNone AuthType = "none"

	// AuthAPIKey is the admin-style scheme: Api-Key plus optional Api-Username.
	AuthAPIKey AuthType = "api_key"

	// AuthUserAPIKey is the user-scoped scheme: User-Api-Key plus optional
	// User-Api-Client-Id.
	AuthUserAPIKey AuthType = "user_api_key"
)

// Credential is one of the mutually exclusive primary authentication schemes.
// At most one scheme is active per request; which header set is emitted
// depends entirely on Type.
type Credential struct {
	Type     AuthType
	Key      string
	Username string // Api-Username (admin-style only)
	ClientID string // User-Api-Client-Id (user-scoped only)
}

// AnonymousCredential returns the no-auth credential.
func AnonymousCredential() Credential {
	return Credential{Type: AuthNone}
}

// APIKeyCredential returns an admin-style credential.
func APIKeyCredential(key, username string) Credential {
	return Credential{Type: AuthAPIKey, Key: key, Username: username}
}

// UserAPIKeyCredential returns a user-scoped credential.
func UserAPIKeyCredential(key, clientID string) Credential {
	return Credential{Type: AuthUserAPIKey, Key: key, ClientID: clientID}
}

// Headers returns exactly the header set belonging to the active scheme.
func (c Credential) Headers() map[string]string {
	switch c.Type {
	case AuthAPIKey:
		h := map[string]string{"Api-Key": c.Key}
		if c.Username != "" {
			h["Api-Username"] = c.Username
		}
		return h
	case AuthUserAPIKey:
		h := map[string]string{"User-Api-Key": c.Key}
		if c.ClientID != "" {
			h["User-Api-Client-Id"] = c.ClientID
		}
		return h
	default:
		return nil
	}
}

// BasicAuth is an HTTP Basic credential. It is additive: when configured it is
// sent alongside whichever primary scheme is active, never instead of it.
type BasicAuth struct {
	User string
	Pass string
}
