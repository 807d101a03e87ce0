// Package travito provides authentication and sessions for the Travito site.
//
// Users sign in with an email and password or through an OAuth provider
// (GitHub, Google). Either way the result is a stateless, signed session
// token carried in an HttpOnly cookie. Pages consult the route guard before
// rendering.
//
// # Architecture
//
// User: an account, identified by a stable id and a unique email. Accounts
// created by registration carry a bcrypt password hash; accounts created by
// an OAuth sign-in have none.
//
// Account: a link between a user and an identity at an OAuth provider. An
// OAuth sign-in whose email already belongs to an unlinked user is refused
// with ErrAccountNotLinked.
//
// Session: the verified contents of a session token. It is derived from the
// token on every request and never re-read from the store.
//
// # Basic Usage
//
// Build the callbacks from a store (see stores/gorm):
//
//	store := gormstore.NewStore(db)
//	issuer, _ := travito.NewSessionIssuer(secret, "travito", 0)
//
//	auth := &travito.Auth{
//	    Issuer:          issuer,
//	    EnsureOAuthUser: travito.NewEnsureOAuthUserFunc(store),
//	}
//	local := &travito.LocalAuth{
//	    ValidateCredentials: travito.NewCredentialsValidator(store),
//	    CreateUser:          travito.NewCreateUserFunc(store),
//	    HandleUser:          auth.SaveUserAndRedirect,
//	}
//	guard := &travito.Middleware{Sessions: auth}
//
// Set up HTTP handlers:
//
//	mux.Handle("POST /api/auth/callback/credentials", local)
//	mux.HandleFunc("POST /api/auth/register", local.HandleSignup)
//	mux.HandleFunc("POST /api/auth/signout", auth.HandleSignOut)
//	mux.HandleFunc("GET /api/auth/session", auth.HandleSession)
//	mux.Handle("GET /trips", guard.RequireSession(tripsHandler))
//
// OAuth providers live in the oauth2 subpackage and hand their results to
// auth.HandleOAuthUser.
//
// # Errors
//
// Failures are reported as wrapped sentinel errors (ErrValidation,
// ErrInvalidCredentials, ErrDuplicateAccount, ErrAccountNotLinked,
// ErrPersistence, ErrConfiguration). HTTP handlers turn them into AuthError
// JSON bodies or sign-in page redirects carrying SignInErrorCode(err).
package travito
