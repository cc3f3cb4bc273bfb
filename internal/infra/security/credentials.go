package security

import (
	"context"
	"crypto/subtle"
	"strconv"

	"purchase-token-gateway/internal/domain/model"
	"purchase-token-gateway/internal/domain/ports/repository"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a syntactically valid bcrypt hash used as the comparison target
// when the merchant does not exist, so the wall-clock cost of authentication
// stays the same whether the client ID is unknown or the secret is wrong.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// CredentialVerifier checks merchant API credentials without leaking, through
// timing, whether a given client ID exists.
type CredentialVerifier struct {
	merchants repository.MerchantRepository

	// compare is bcrypt.CompareHashAndPassword unless a test swaps it out; it
	// must be invoked exactly once per Verify call, on every path.
	compare func(hashedPassword, password []byte) error
}

func NewCredentialVerifier(merchants repository.MerchantRepository) *CredentialVerifier {
	return &CredentialVerifier{
		merchants: merchants,
		compare:   bcrypt.CompareHashAndPassword,
	}
}

// Verify returns the merchant when clientID/clientSecret are valid. The hash
// comparison always runs, against dummyHash when lookup fails.
func (v *CredentialVerifier) Verify(ctx context.Context, clientID, clientSecret string) (*model.Merchant, bool) {
	var merchant *model.Merchant
	if id, err := strconv.ParseInt(clientID, 10, 64); err == nil {
		if m, err := v.merchants.FindByID(ctx, id); err == nil {
			merchant = m
		}
	}

	hashToVerify := dummyHash
	if merchant != nil {
		hashToVerify = merchant.PasswordHash
	}

	if err := v.compare([]byte(hashToVerify), []byte(clientSecret)); err != nil || merchant == nil {
		return nil, false
	}
	return merchant, true
}

// SecureCompare is a constant-time string equality check, used for token
// verification so prefix matches cannot be probed through timing.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
