package settlement

import (
	"encoding/json"
	"strings"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
)

type callbackBody struct {
	ProviderTxID string `json:"provider_tx_id"`
	Reference    string `json:"reference"`
	Status       string `json:"status"`
	Provider     string `json:"provider"`
}

// ParseCallback decodes the shared `{provider_tx_id, status, provider?}` body.
// It is also used directly when the path channel has no adapter.
func ParseCallback(payload []byte) (*CallbackResult, error) {
	var body callbackBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback body")
	}

	reference := strings.TrimSpace(body.ProviderTxID)
	if reference == "" {
		reference = strings.TrimSpace(body.Reference)
	}
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider_tx_id is required")
	}

	outcome, err := enums.ParseCallbackOutcome(body.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback status")
	}

	result := &CallbackResult{Reference: reference, Outcome: outcome}
	if strings.TrimSpace(body.Provider) != "" {
		channel, err := enums.ParseChannel(body.Provider)
		if err != nil || !channel.IsMobile() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid callback provider %q", body.Provider)
		}
		result.DeclaredChannel = &channel
	}
	return result, nil
}
