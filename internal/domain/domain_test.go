package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"seeker":  RoleSeeker,
		" Admin ": RoleAdmin,
		"COMPANY": RoleCompany,
	}
	for raw, want := range cases {
		got, err := ParseRole(raw)
		if err != nil || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseRole("root"); !errors.Is(err, ErrInvalidRole) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid role validation error, got %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{ErrEmailTaken, ErrValidation},
		{ErrInvalidRefreshToken, ErrAuthentication},
		{ErrUserBlocked, ErrAuthorization},
		{ErrEmailNotFound, ErrNotFound},
		{ErrOTPCooldown, ErrRateLimited},
	}
	kinds := []error{ErrValidation, ErrAuthentication, ErrAuthorization, ErrNotFound, ErrRateLimited}
	for _, tc := range cases {
		for _, k := range kinds {
			if got := errors.Is(tc.err, k); got != (k == tc.kind) {
				t.Fatalf("errors.Is(%v, %v) = %v", tc.err, k, got)
			}
		}
	}
	if ErrUserBlocked.Error() != "user is blocked" {
		t.Fatalf("expected client message, got %q", ErrUserBlocked.Error())
	}
}

func TestUserListOptionsNormalize(t *testing.T) {
	opts := UserListOptions{Page: 0, Limit: 0}.Normalize()
	if opts.Page != 1 || opts.Limit != DefaultPageLimit {
		t.Fatalf("unexpected defaults %+v", opts)
	}
	opts = UserListOptions{Page: 3, Limit: 500}.Normalize()
	if opts.Limit != MaxPageLimit || opts.Offset() != 2*MaxPageLimit {
		t.Fatalf("unexpected capped options %+v offset=%d", opts, opts.Offset())
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(UserListOptions{Page: 2, Limit: 10}, 25)
	if p.TotalPages != 3 || !p.HasNext || !p.HasPrev {
		t.Fatalf("unexpected pagination %+v", p)
	}
	p = NewPagination(UserListOptions{Page: 1, Limit: 10}, 0)
	if p.TotalPages != 0 || p.HasNext || p.HasPrev {
		t.Fatalf("unexpected empty pagination %+v", p)
	}
}

func TestUserHasSession(t *testing.T) {
	empty := ""
	hash := "h"
	if (User{}).HasSession() || (User{RefreshTokenHash: &empty}).HasSession() {
		t.Fatalf("expected no session")
	}
	if !(User{RefreshTokenHash: &hash}).HasSession() {
		t.Fatalf("expected session")
	}
}
