package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"gofinances/internal/core"
)

const avatarURL = "https://ui-avatars.com/api/"

// AppleCredential is what the platform's Apple sign-in returns to the client.
type AppleCredential struct {
	User          string        `json:"user"`
	Email         string        `json:"email"`
	FullName      AppleFullName `json:"fullName"`
	IdentityToken string        `json:"identityToken"`
}

type AppleFullName struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

type appleClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AppleUser maps a credential onto core.User. The identity token's signature
// is checked by the platform; only its claims are read here, to fill the id
// and email Apple omits after the first sign-in.
func AppleUser(cred AppleCredential) (core.User, error) {
	user := core.User{
		ID:    cred.User,
		Email: cred.Email,
		Name:  strings.TrimSpace(cred.FullName.GivenName),
	}

	if cred.IdentityToken != "" {
		var claims appleClaims
		if _, _, err := jwt.NewParser().ParseUnverified(cred.IdentityToken, &claims); err != nil {
			return core.User{}, fmt.Errorf("parse identity token: %w", err)
		}
		if user.ID == "" {
			user.ID = claims.Subject
		} else if claims.Subject != "" && claims.Subject != user.ID {
			return core.User{}, fmt.Errorf("identity token subject does not match user")
		}
		if user.Email == "" {
			user.Email = claims.Email
		}
	}

	if err := user.Validate(); err != nil {
		return core.User{}, err
	}
	if user.Name != "" {
		user.Photo = AvatarURL(user.Name)
	}
	return user, nil
}

// AvatarURL builds a one-letter generated avatar for name.
func AvatarURL(name string) string {
	v := url.Values{}
	v.Set("name", name)
	v.Set("length", "1")
	return avatarURL + "?" + v.Encode()
}
