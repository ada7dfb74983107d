package settlement

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
)

var channelHeaderNames = map[enums.Channel]string{
	enums.ChannelTigoPesa:    "tigo",
	enums.ChannelAirtelMoney: "airtel",
	enums.ChannelVodacom:     "vodacom",
	enums.ChannelHaloPesa:    "halo",
}

// SignatureHeaders lists the headers checked for a callback signature, in order.
func SignatureHeaders(channel enums.Channel) []string {
	headers := []string{"X-Provider-Signature"}
	if short, ok := channelHeaderNames[channel]; ok {
		headers = append(headers, "X-"+short+"-Signature")
	}
	return append(headers, "X-Signature")
}

// FindSignature returns the first non-empty signature header.
func FindSignature(channel enums.Channel, headers http.Header) string {
	for _, name := range SignatureHeaders(channel) {
		if v := strings.TrimSpace(headers.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time; case of the hex digest is ignored.
func VerifySignature(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
