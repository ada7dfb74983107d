package enums

import "testing"

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		allowed  bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusFailed, PaymentStatusPaid, true},
		{PaymentStatusFailed, PaymentStatusPending, false},
		{PaymentStatusPaid, PaymentStatusFailed, false},
		{PaymentStatusPaid, PaymentStatusPending, false},
		{PaymentStatusPaid, PaymentStatusPaid, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
	if !PaymentStatusPaid.IsTerminal() || PaymentStatusFailed.IsTerminal() {
		t.Fatal("only paid is terminal")
	}
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel(" Tigo_Pesa ")
	if err != nil || ch != ChannelTigoPesa {
		t.Fatalf("expected tigo_pesa, got %q err=%v", ch, err)
	}
	if !ch.IsMobile() {
		t.Fatal("tigo_pesa is a mobile channel")
	}
	if ChannelCard.IsMobile() {
		t.Fatal("card is not a mobile channel")
	}
	if _, err := ParseChannel("mpesa"); err == nil {
		t.Fatal("expected unknown channel to fail")
	}
	if ChannelVodacom.DisplayName() != "M-Pesa" {
		t.Fatalf("unexpected display name %q", ChannelVodacom.DisplayName())
	}
	if len(MobileChannels()) != 4 {
		t.Fatalf("expected four mobile channels, got %v", MobileChannels())
	}
}

func TestParseCallbackOutcome(t *testing.T) {
	for _, raw := range []string{"success", "SUCCESSFUL", "paid"} {
		got, err := ParseCallbackOutcome(raw)
		if err != nil || got != OutcomeSuccess {
			t.Fatalf("%q: expected success, got %q err=%v", raw, got, err)
		}
	}
	got, err := ParseCallbackOutcome("failed")
	if err != nil || got.TargetStatus() != PaymentStatusFailed {
		t.Fatalf("expected failed target, got %q err=%v", got, err)
	}
	if _, err := ParseCallbackOutcome("pending"); err == nil {
		t.Fatal("pending is not a callback outcome")
	}
}

func TestStatusParsers(t *testing.T) {
	if _, err := ParsePaymentStatus("settled"); err == nil {
		t.Fatal("settled is not a payment status")
	}
	if s, err := ParseOrderStatus("cancelled"); err != nil || s != OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %q err=%v", s, err)
	}
	if _, err := ParseOutboxEventType("order_paid"); err != nil {
		t.Fatalf("order_paid should parse: %v", err)
	}
}
