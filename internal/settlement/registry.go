package settlement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
)

// ChannelUnavailableError is returned by Resolve for unknown, unregistered or
// misconfigured channels.
type ChannelUnavailableError struct {
	Channel string
	Reason  string
}

func (e *ChannelUnavailableError) Error() string {
	return fmt.Sprintf("channel %q unavailable: %s", e.Channel, e.Reason)
}

// Unwrap exposes the API error so pkg/errors.CodeOf maps it to CHANNEL_UNAVAILABLE.
func (e *ChannelUnavailableError) Unwrap() error {
	return pkgerrors.Newf(pkgerrors.CodeChannelUnavailable, "channel %s is unavailable", e.Channel).
		WithDetails(map[string]any{"channel": e.Channel, "reason": e.Reason})
}

type Registry struct {
	adapters map[enums.Channel]Adapter
	// skipped records channels that were configured off or invalid at startup.
	skipped map[enums.Channel]string
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[enums.Channel]Adapter, len(adapters)),
		skipped:  map[enums.Channel]string{},
	}
	for _, a := range adapters {
		if a != nil {
			r.adapters[a.Channel()] = a
		}
	}
	return r
}

// NewRegistryFromConfig builds one mobile adapter per enabled network. A
// network with missing settings is skipped, not fatal; Resolve reports it.
func NewRegistryFromConfig(cfg config.MobileConfig, currency string, logg *logger.Logger, opts ...MobileOption) *Registry {
	r := NewRegistry()
	opts = append([]MobileOption{WithLogger(logg)}, opts...)

	for _, channel := range enums.MobileChannels() {
		chCfg := channelConfig(cfg, channel)
		if !chCfg.Enabled {
			r.skipped[channel] = "disabled"
			continue
		}
		adapter, err := NewMobileAdapter(channel, chCfg, currency, opts...)
		if err != nil {
			r.skipped[channel] = err.Error()
			continue
		}
		r.adapters[channel] = adapter
	}
	return r
}

func channelConfig(cfg config.MobileConfig, channel enums.Channel) config.MobileChannelConfig {
	switch channel {
	case enums.ChannelTigoPesa:
		return cfg.Tigo
	case enums.ChannelAirtelMoney:
		return cfg.Airtel
	case enums.ChannelVodacom:
		return cfg.Vodacom
	case enums.ChannelHaloPesa:
		return cfg.Halo
	default:
		return config.MobileChannelConfig{}
	}
}

// Resolve returns the adapter for channel or a *ChannelUnavailableError.
func (r *Registry) Resolve(channel string) (Adapter, error) {
	parsed, err := enums.ParseChannel(channel)
	if err != nil {
		return nil, &ChannelUnavailableError{Channel: strings.TrimSpace(channel), Reason: "unknown channel"}
	}
	if r == nil {
		return nil, &ChannelUnavailableError{Channel: string(parsed), Reason: "no adapters registered"}
	}
	if a, ok := r.adapters[parsed]; ok {
		return a, nil
	}
	if reason, ok := r.skipped[parsed]; ok {
		return nil, &ChannelUnavailableError{Channel: string(parsed), Reason: reason}
	}
	return nil, &ChannelUnavailableError{Channel: string(parsed), Reason: "not registered"}
}

// Channels lists registered channels in a stable order.
func (r *Registry) Channels() []enums.Channel {
	if r == nil {
		return nil
	}
	out := make([]enums.Channel, 0, len(r.adapters))
	for ch := range r.adapters {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
