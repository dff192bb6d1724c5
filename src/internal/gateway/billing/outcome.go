package billing

// Outcome classifies a provider response into the only three classes the
// orchestrator is allowed to act on. Anything that is not an unambiguous
// success or an unambiguous rejection is Ambiguous: the provider may still
// have delivered the purchase, so the caller must requery, never guess.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "ambiguous"
	}
}

// Provider result codes. "000" is the delivered code; "099" and "001" mean
// the provider accepted the request and is still processing it.
const (
	CodeDelivered  = "000"
	CodeProcessing = "099"
	CodePending    = "001"
)

// ProviderResult is the decoded pay/query response.
type ProviderResult struct {
	Code        string `json:"code"`
	Description string `json:"response_description"`
	Token       string `json:"token,omitempty"`
	ProviderRef string `json:"provider_reference,omitempty"`
}

// Classify maps a provider result to an outcome. A nil result (transport
// failure, malformed body) is ambiguous by definition.
func Classify(result *ProviderResult) Outcome {
	if result == nil || result.Code == "" {
		return OutcomeAmbiguous
	}
	switch result.Code {
	case CodeDelivered:
		return OutcomeSuccess
	case CodeProcessing, CodePending:
		return OutcomeAmbiguous
	default:
		return OutcomeFailure
	}
}
