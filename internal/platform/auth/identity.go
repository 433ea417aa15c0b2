package auth

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/rudraksha-store/api/internal/domain"
)

// PhoneClaim is the Firebase token claim carrying the verified phone number.
const PhoneClaim = "phone_number"

const guestIDPrefix = "guest_"

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// StandardizeUserID canonicalizes any accepted identifier form to a bare phone
// number ("+" followed only by digits) when one can be derived. Inputs that are
// not phone-number shaped, including guest identifiers, are returned unchanged.
// The function is idempotent: applying it twice yields the same result.
func StandardizeUserID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, guestIDPrefix) {
		return trimmed
	}

	hasPlus := strings.HasPrefix(trimmed, "+")
	var digits strings.Builder
	for _, r := range trimmed {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '+' || r == '-' || r == '(' || r == ')' || r == '.' || unicode.IsSpace(r):
			// separators commonly typed into phone fields
		default:
			// not phone-number shaped; leave the input alone
			return trimmed
		}
	}

	ds := digits.String()
	switch {
	case ds == "":
		return trimmed
	case hasPlus:
		return "+" + ds
	case len(ds) == 10:
		// bare national mobile number
		return "+91" + ds
	case len(ds) == 12 && strings.HasPrefix(ds, "91"):
		return "+" + ds
	default:
		return "+" + ds
	}
}

// IsValidUserID reports whether id is a canonical phone number or a guest identifier.
func IsValidUserID(id string) bool {
	if strings.HasPrefix(id, guestIDPrefix) {
		return true
	}
	if len(id) < 2 || id[0] != '+' {
		return false
	}
	for _, r := range id[1:] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// GuestIdentifier produces a pseudo-unique identity for unauthenticated sessions.
// When a phone number is supplied it is standardized and used directly so a later
// sign-in reconciles to the same user document.
func GuestIdentifier(optionalPhone string, now func() time.Time) domain.UserIdentifier {
	if now == nil {
		now = time.Now
	}
	if phone := StandardizeUserID(optionalPhone); phone != "" && IsValidUserID(phone) && !strings.HasPrefix(phone, guestIDPrefix) {
		return domain.UserIdentifier{
			PhoneNumber:     phone,
			UserID:          phone,
			IsAuthenticated: false,
		}
	}
	return domain.UserIdentifier{
		UserID:          fmt.Sprintf("%s%d_%s", guestIDPrefix, now().UnixMilli(), randomBase36(9)),
		IsAuthenticated: false,
	}
}

// IdentifierFromClaims derives the canonical identity from verified token claims.
// It fails closed: a missing or empty phone claim yields an unauthenticated
// identifier with empty strings rather than an error.
func IdentifierFromClaims(claims map[string]interface{}) domain.UserIdentifier {
	raw, _ := claims[PhoneClaim].(string)
	phone := StandardizeUserID(raw)
	if phone == "" || !IsValidUserID(phone) {
		return domain.UserIdentifier{}
	}
	return domain.UserIdentifier{
		PhoneNumber:     phone,
		UserID:          phone,
		IsAuthenticated: true,
	}
}

func randomBase36(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = base36Alphabet[rand.Intn(len(base36Alphabet))]
	}
	return string(out)
}
