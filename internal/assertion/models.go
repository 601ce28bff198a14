// Package assertion issues and consumes the short-lived proof-of-contact
// tokens that bridge code verification and registration submission. Each
// assertion is single-use: consuming one records its token ID so a replay
// with the same token is rejected.
package assertion

import "github.com/golang-jwt/jwt/v5"

// Claims carries the verified contact address as the subject.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

const issuer = "examreg"
