package travito_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/travito/travito"
)

func TestSignInErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{travito.ErrInvalidCredentials, travito.SignInErrorCredentials},
		{fmt.Errorf("wrapped: %w", travito.ErrValidation), travito.SignInErrorCredentials},
		{travito.ErrAccountNotLinked, travito.SignInErrorNotLinked},
		{travito.ErrConfiguration, travito.SignInErrorConfiguration},
		{travito.ErrPersistence, travito.SignInErrorOAuthCallback},
		{errors.New("token exchange failed"), travito.SignInErrorOAuthCallback},
	}
	for _, tt := range tests {
		if got := travito.SignInErrorCode(tt.err); got != tt.want {
			t.Errorf("SignInErrorCode(%v): expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func TestAuthError(t *testing.T) {
	err := travito.NewAuthError(travito.ErrCodeEmailExists, "User with this email already exists", "email").Wrap(travito.ErrDuplicateAccount)

	if !errors.Is(err, travito.ErrDuplicateAccount) {
		t.Error("Expected AuthError to unwrap to its sentinel")
	}
	data, _ := json.Marshal(err)
	want := `{"code":"duplicate_account","error":"User with this email already exists","field":"email"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}

	plain := travito.NewAuthError(travito.ErrCodeInternal, "boom", "")
	if plain.Error() != "internal_error: boom" {
		t.Errorf("Unexpected message %q", plain.Error())
	}
}
