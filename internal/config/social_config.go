package config

const (
	googleClientIDVar     = "GOOGLE_CLIENT_ID"
	googleClientSecretVar = "GOOGLE_CLIENT_SECRET"
	googleRedirectURLVar  = "GOOGLE_REDIRECT_URL"
	appleClientIDVar      = "APPLE_CLIENT_ID"
)

type SocialConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
	GetAppleClientID() string
}

type Social struct {
	file *File
}

var _ SocialConfig = Social{}

func (s Social) GetGoogleClientID() string {
	return GetEnv(googleClientIDVar, s.file.Social.GoogleClientID)
}

// GetGoogleClientSecret is empty for public (installed app) clients.
func (s Social) GetGoogleClientSecret() string {
	return GetEnv(googleClientSecretVar, s.file.Social.GoogleClientSecret)
}

func (s Social) GetGoogleRedirectURL() string {
	return GetEnv(googleRedirectURLVar, orDefault(s.file.Social.GoogleRedirectURL, "http://127.0.0.1:8085/callback"))
}

func (s Social) GetAppleClientID() string {
	return GetEnv(appleClientIDVar, s.file.Social.AppleClientID)
}
