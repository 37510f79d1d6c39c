package enterprise

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// SetPassword hashes plaintext with bcrypt and stores it on the principal.
// The original plaintext is never retained.
func (p *Principal) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return aerr.Backend("bcrypt hash", err)
	}
	p.PasswordHash = string(hash)
	return nil
}

// VerifyPassword reports whether plaintext matches the principal's stored
// hash. A principal with no hash set never verifies.
func (p *Principal) VerifyPassword(plaintext string) bool {
	if p.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(plaintext)) == nil
}

// serviceClaims is the JWT claim set issued for service-to-service calls:
// the principal's identity, tenant, and flattened permission set, on top
// of the standard registered claims (exp, iat, sub).
type serviceClaims struct {
	jwt.RegisteredClaims
	TenantID    TenantID     `json:"tenant_id"`
	Permissions []Permission `json:"permissions"`
}

// TokenIssuer issues and verifies HS256 service tokens for an RbacPolicy.
// It does not replace RbacPolicy.Authorize — a verified token just proves
// who the caller is; the policy still decides what they may do.
type TokenIssuer struct {
	signingKey []byte
}

// NewTokenIssuer constructs an issuer around an HMAC signing key.
func NewTokenIssuer(signingKey []byte) *TokenIssuer {
	return &TokenIssuer{signingKey: signingKey}
}

// permissionSet flattens a principal's roles into its distinct granted
// permissions, so a verified token carries authorization state without a
// second RbacPolicy lookup.
func permissionSet(principal Principal) []Permission {
	seen := make(map[Permission]struct{})
	var out []Permission
	for _, role := range principal.Roles {
		for _, perm := range role.Permissions {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			out = append(out, perm)
		}
	}
	return out
}

// Issue mints a signed token for principal valid for ttl.
func (i *TokenIssuer) Issue(principal Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := serviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID:    principal.TenantID,
		Permissions: permissionSet(principal),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", aerr.Backend("jwt sign", err)
	}
	return signed, nil
}

// VerifiedToken is the authenticated identity recovered from a token.
type VerifiedToken struct {
	PrincipalID string
	TenantID    TenantID
	Permissions []Permission
}

// Has reports whether the token's permission set grants permission,
// honoring the admin_full wildcard the same way RbacPolicy.Authorize does.
func (v VerifiedToken) Has(permission Permission) bool {
	for _, p := range v.Permissions {
		if p == permission || p.isAdmin() {
			return true
		}
	}
	return false
}

// Verify checks a token's signature and expiry and returns the identity it
// carries.
func (i *TokenIssuer) Verify(tokenString string) (VerifiedToken, error) {
	var claims serviceClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return VerifiedToken{}, aerr.PolicyDenied("invalid or expired service token: " + err.Error())
	}
	return VerifiedToken{
		PrincipalID: claims.Subject,
		TenantID:    claims.TenantID,
		Permissions: claims.Permissions,
	}, nil
}
