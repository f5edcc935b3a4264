// Package jwt inspects bearer credentials that happen to be JWTs.
//
// Inspection is unverified: the client never holds the signing key, so claims are read for
// scheduling and hygiene (expiry, subject) and never for authorization decisions. Opaque
// credentials that are not JWTs yield [ErrNotJWT] and must be treated as "unknown expiry".
package jwt
