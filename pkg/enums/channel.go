package enums

import (
	"fmt"
	"strings"
)

// Channel names a settlement method.
type Channel string

const (
	ChannelCard        Channel = "card"
	ChannelTigoPesa    Channel = "tigo_pesa"
	ChannelAirtelMoney Channel = "airtel_money"
	ChannelVodacom     Channel = "vodacom"
	ChannelHaloPesa    Channel = "halo_pesa"
)

var validChannels = []Channel{
	ChannelCard,
	ChannelTigoPesa,
	ChannelAirtelMoney,
	ChannelVodacom,
	ChannelHaloPesa,
}

var channelDisplayNames = map[Channel]string{
	ChannelCard:        "Card",
	ChannelTigoPesa:    "TigoPesa",
	ChannelAirtelMoney: "Airtel Money",
	ChannelVodacom:     "M-Pesa",
	ChannelHaloPesa:    "HaloPesa",
}

// String implements fmt.Stringer.
func (c Channel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Channel.
func (c Channel) IsValid() bool {
	for _, candidate := range validChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsMobile reports whether the channel is a mobile-money network.
func (c Channel) IsMobile() bool {
	return c.IsValid() && c != ChannelCard
}

// DisplayName is the payer-facing network name.
func (c Channel) DisplayName() string {
	if name, ok := channelDisplayNames[c]; ok {
		return name
	}
	return string(c)
}

// MobileChannels lists the mobile-money networks in display order.
func MobileChannels() []Channel {
	return []Channel{ChannelTigoPesa, ChannelAirtelMoney, ChannelVodacom, ChannelHaloPesa}
}

// ParseChannel converts raw input into a Channel. Matching is case-insensitive.
func ParseChannel(value string) (Channel, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validChannels {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid channel %q", value)
}
