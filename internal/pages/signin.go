package pages

import (
	"net/http"

	"github.com/travito/travito"
)

type signInView struct {
	Error       string
	CallbackURL string
	Credentials bool
	OAuth       []travito.Provider
}

// SignInErrorMessage turns an error query code into the text shown above
// the sign-in form. Unknown codes get a generic message.
func SignInErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case travito.SignInErrorCredentials:
		return "Invalid email or password"
	case travito.SignInErrorNotLinked:
		return "An account with the same email already exists but is linked to a different provider."
	default:
		return "An error occurred during sign in. Please try again."
	}
}

func (h *Handler) signInData(r *http.Request) any {
	q := r.URL.Query()
	v := signInView{
		Error:       SignInErrorMessage(q.Get("error")),
		CallbackURL: travito.SanitizeCallbackURL(q.Get("callbackUrl")),
	}
	if h.Providers != nil {
		_, v.Credentials = h.Providers.Get(travito.CredentialsProviderID)
		v.OAuth = h.Providers.OAuth()
	}
	return v
}
