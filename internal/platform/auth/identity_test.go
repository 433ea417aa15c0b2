package auth

import (
	"regexp"
	"testing"
	"time"
)

func TestStandardizeUserID(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"canonical passes through", "+919876543210", "+919876543210"},
		{"strips separators", "+91 98765-43210", "+919876543210"},
		{"parenthesised", "+91 (987) 654 3210", "+919876543210"},
		{"bare ten digit gets country code", "9876543210", "+919876543210"},
		{"country prefixed without plus", "919876543210", "+919876543210"},
		{"guest id unchanged", "guest_1700000000000_abc123xyz", "guest_1700000000000_abc123xyz"},
		{"non-phone unchanged", "not-a-phone", "not-a-phone"},
		{"empty unchanged", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StandardizeUserID(tc.in); got != tc.want {
				t.Fatalf("StandardizeUserID(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStandardizeUserIDIsIdempotent(t *testing.T) {
	inputs := []string{
		"+919876543210",
		"9876543210",
		"+91 98765 43210",
		"guest_1700000000000_abc123xyz",
		"random text",
		"",
	}
	for _, in := range inputs {
		once := StandardizeUserID(in)
		twice := StandardizeUserID(once)
		if once != twice {
			t.Errorf("StandardizeUserID not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestIsValidUserID(t *testing.T) {
	valid := []string{"+919876543210", "+1", "guest_1700000000000_abc123xyz", "guest_x"}
	for _, id := range valid {
		if !IsValidUserID(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}

	invalid := []string{"", "+", "9876543210", "+91abc", "user_123"}
	for _, id := range invalid {
		if IsValidUserID(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestGuestIdentifierFormat(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := GuestIdentifier("", func() time.Time { return now })

	if id.IsAuthenticated {
		t.Fatal("guest identifier must not be authenticated")
	}
	pattern := regexp.MustCompile(`^guest_1700000000000_[0-9a-z]{9}$`)
	if !pattern.MatchString(id.UserID) {
		t.Fatalf("unexpected guest id format %q", id.UserID)
	}
	if !IsValidUserID(id.UserID) {
		t.Fatalf("guest id %q should be valid", id.UserID)
	}
}

func TestGuestIdentifierWithPhoneReconciles(t *testing.T) {
	id := GuestIdentifier("98765 43210", time.Now)

	if id.IsAuthenticated {
		t.Fatal("phone-supplied guest must remain unauthenticated")
	}
	if id.UserID != "+919876543210" {
		t.Fatalf("expected standardized phone as user id, got %q", id.UserID)
	}
	if id.PhoneNumber != id.UserID {
		t.Fatalf("phone number %q should match user id %q", id.PhoneNumber, id.UserID)
	}
}

func TestGuestIdentifiersAreDistinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		id := GuestIdentifier("", time.Now)
		if _, dup := seen[id.UserID]; dup {
			t.Fatalf("duplicate guest id generated: %s", id.UserID)
		}
		seen[id.UserID] = struct{}{}
	}
}

func TestIdentifierFromClaims(t *testing.T) {
	t.Run("verified phone", func(t *testing.T) {
		id := IdentifierFromClaims(map[string]interface{}{PhoneClaim: "+919876543210"})
		if !id.IsAuthenticated {
			t.Fatal("expected authenticated identity")
		}
		if id.UserID != "+919876543210" || id.PhoneNumber != "+919876543210" {
			t.Fatalf("unexpected identity %+v", id)
		}
	})

	t.Run("fails closed without phone claim", func(t *testing.T) {
		id := IdentifierFromClaims(map[string]interface{}{"email": "a@b.c"})
		if id.IsAuthenticated {
			t.Fatal("expected unauthenticated identity")
		}
		if id.UserID != "" || id.PhoneNumber != "" {
			t.Fatalf("expected empty identity, got %+v", id)
		}
	})

	t.Run("fails closed on empty phone claim", func(t *testing.T) {
		id := IdentifierFromClaims(map[string]interface{}{PhoneClaim: "   "})
		if id.IsAuthenticated {
			t.Fatal("expected unauthenticated identity")
		}
	})

	t.Run("unparseable claim stays unauthenticated", func(t *testing.T) {
		id := IdentifierFromClaims(map[string]interface{}{PhoneClaim: "no digits here"})
		if id.IsAuthenticated {
			t.Fatal("expected unauthenticated identity for malformed phone")
		}
		if id.UserID != "" {
			t.Fatalf("expected empty user id, got %q", id.UserID)
		}
	})
}
