package settlement

import (
	"fmt"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/money"
)

// manualTemplates take amount label, payer phone, merchant number and reference.
var manualTemplates = map[enums.Channel]string{
	enums.ChannelTigoPesa:    "Send %s from %s to TigoPesa merchant %s and use ref %s",
	enums.ChannelAirtelMoney: "Airtel Money: send %s from %s to %s and reference %s",
	enums.ChannelVodacom:     "M-Pesa: send %s from %s to %s and reference %s",
	enums.ChannelHaloPesa:    "HaloPesa: transfer %s from %s to %s and reference %s",
}

// ManualInstructions is what a payer sees when no provider endpoint is wired.
func ManualInstructions(channel enums.Channel, sandbox bool, currency string, cents int64, phone, merchant, reference string) string {
	tmpl, ok := manualTemplates[channel]
	if !ok {
		tmpl = "Pay %s from %s to merchant %s and reference %s"
	}
	text := fmt.Sprintf(tmpl, money.Label(currency, cents), phone, merchant, reference)
	if sandbox {
		return "SANDBOX: " + text
	}
	return text
}

// GenericInstructions is the fallback text used when a channel cannot be reached.
func GenericInstructions(channel enums.Channel, currency string, cents int64) string {
	amount := money.Label(currency, cents)
	switch channel {
	case enums.ChannelTigoPesa:
		return fmt.Sprintf("Send %s to Tigo Pesa business number or follow provider prompt.", amount)
	case enums.ChannelAirtelMoney:
		return fmt.Sprintf("Send %s via Airtel Money to the merchant number and include the order reference.", amount)
	case enums.ChannelVodacom:
		return fmt.Sprintf("Use M-Pesa/Vodacom USSD or app to pay %s to the merchant pay number.", amount)
	case enums.ChannelHaloPesa:
		return fmt.Sprintf("Use HaloPesa to transfer %s to the merchant number.", amount)
	default:
		return fmt.Sprintf("Follow provider instructions to pay %s.", amount)
	}
}
