package settlement

import (
	"errors"
	"testing"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
)

func TestRegistryFromConfig(t *testing.T) {
	cfg := config.MobileConfig{
		Tigo:    config.MobileChannelConfig{Enabled: true, MerchantNumber: "111"},
		Airtel:  config.MobileChannelConfig{Enabled: false, MerchantNumber: "222"},
		Vodacom: config.MobileChannelConfig{Enabled: true},
		Halo:    config.MobileChannelConfig{Enabled: true, MerchantNumber: "444"},
	}
	reg := NewRegistryFromConfig(cfg, "TZS", nil)

	channels := reg.Channels()
	if len(channels) != 2 || channels[0] != enums.ChannelHaloPesa || channels[1] != enums.ChannelTigoPesa {
		t.Fatalf("unexpected channels %v", channels)
	}

	adapter, err := reg.Resolve("TIGO_PESA")
	if err != nil {
		t.Fatalf("resolve tigo: %v", err)
	}
	if adapter.Channel() != enums.ChannelTigoPesa {
		t.Fatalf("unexpected adapter channel %s", adapter.Channel())
	}

	for _, name := range []string{"airtel_money", "vodacom", "card", "bitcoin"} {
		_, err := reg.Resolve(name)
		var unavailable *ChannelUnavailableError
		if !errors.As(err, &unavailable) {
			t.Fatalf("%s: expected ChannelUnavailableError, got %v", name, err)
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeChannelUnavailable) {
			t.Fatalf("%s: expected channel unavailable code, got %v", name, err)
		}
	}
}

func TestNilRegistryResolve(t *testing.T) {
	var reg *Registry
	if _, err := reg.Resolve("tigo_pesa"); err == nil {
		t.Fatal("expected error from nil registry")
	}
	if reg.Channels() != nil {
		t.Fatal("expected nil channels")
	}
}
