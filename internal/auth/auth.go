package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator validates bearer tokens minted by the identity
// service, which shares the signing secret. This service never issues
// tokens or stores credentials; it only resolves "who is calling".
type Authenticator interface {
	ValidateAccessToken(token string) (*jwt.Token, error)
}
