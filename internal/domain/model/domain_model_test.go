package model

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"purchase-token-gateway/internal/domain"
)

func newTestToken(t *testing.T, price int64) *PurchaseToken {
	t.Helper()
	tok, err := NewPurchaseToken("txn-1", price, "test purchase",
		"https://pay.example.com/ok",
		"https://pay.example.com/cancel",
		"https://pay.example.com/fail",
		"https://hooks.example.com/notify")
	if err != nil {
		t.Fatalf("NewPurchaseToken: %v", err)
	}
	return tok
}

func TestNewPurchaseToken_PriceBounds(t *testing.T) {
	cases := []struct {
		price int64
		ok    bool
	}{
		{49, false},
		{50, true},
		{1_000_000, true},
		{1_000_001, false},
	}
	for _, tc := range cases {
		_, err := NewPurchaseToken("txn", tc.price, "d",
			"https://a.example.com", "https://a.example.com", "https://a.example.com", "https://h.example.com")
		if tc.ok && err != nil {
			t.Errorf("price %d: unexpected error %v", tc.price, err)
		}
		if !tc.ok {
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("price %d: want ErrInvalidArgument, got %v", tc.price, err)
			}
		}
	}
}

func TestNewPurchaseToken_TokenShape(t *testing.T) {
	tok := newTestToken(t, 100)

	if matched := regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(tok.Token); !matched {
		t.Fatalf("token %q is not 32 hex chars", tok.Token)
	}
	if tok.IsPurchased || tok.IsClientFailure || tok.IsSuccess != nil {
		t.Fatalf("fresh token has non-initial state: %+v", tok)
	}

	other := newTestToken(t, 100)
	if other.Token == tok.Token {
		t.Fatal("two tokens generated the same secret")
	}
}

func TestNewPurchaseToken_FieldLimits(t *testing.T) {
	long := make([]byte, 33)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := NewPurchaseToken(string(long), 100, "d",
		"https://a.example.com", "https://a.example.com", "https://a.example.com", "https://h.example.com"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("long transactionID: want ErrInvalidArgument, got %v", err)
	}
	if _, err := NewPurchaseToken("txn", 100, "d",
		"", "https://a.example.com", "https://a.example.com", "https://h.example.com"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("missing successURL: want ErrInvalidArgument, got %v", err)
	}
}

func TestPurchaseToken_Expired(t *testing.T) {
	tok := newTestToken(t, 100)

	if tok.Expired(tok.DateCreated.Add(ExpirationWindow - time.Minute)) {
		t.Error("token expired inside the window")
	}
	if !tok.Expired(tok.DateCreated.Add(ExpirationWindow + time.Minute)) {
		t.Error("token not expired outside the window")
	}
}

func TestPurchaseToken_MarkPurchasedOnce(t *testing.T) {
	tok := newTestToken(t, 100)

	if err := tok.MarkPurchased(true, "cs_1", "pi_1", "cus_1"); err != nil {
		t.Fatalf("first MarkPurchased: %v", err)
	}
	if !tok.IsPurchased || tok.IsSuccess == nil || !*tok.IsSuccess {
		t.Fatalf("purchase state not recorded: %+v", tok)
	}
	if tok.StripeID == nil || *tok.StripeID != "cs_1" {
		t.Fatalf("stripe refs not recorded: %+v", tok)
	}

	if err := tok.MarkPurchased(true, "cs_2", "pi_2", "cus_2"); !errors.Is(err, domain.ErrAlreadyPurchased) {
		t.Fatalf("second MarkPurchased: want ErrAlreadyPurchased, got %v", err)
	}
	if *tok.StripeID != "cs_1" {
		t.Fatal("second completion overwrote processor references")
	}
}

func TestPurchaseToken_ClientFailureTransitions(t *testing.T) {
	tok := newTestToken(t, 100)

	if err := tok.MarkClientFailure(); !errors.Is(err, domain.ErrNotPurchased) {
		t.Fatalf("MarkClientFailure before purchase: want ErrNotPurchased, got %v", err)
	}

	if err := tok.MarkPurchased(true, "", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := tok.MarkClientFailure(); err != nil {
		t.Fatalf("MarkClientFailure after purchase: %v", err)
	}
	if !tok.IsClientFailure {
		t.Fatal("flag not set")
	}

	tok.ClearClientFailure()
	if tok.IsClientFailure {
		t.Fatal("flag not cleared")
	}
	if !tok.IsPurchased {
		t.Fatal("clearing the flag must not revert the purchase")
	}
}
