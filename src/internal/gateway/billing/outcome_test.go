package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		result *ProviderResult
		want   Outcome
	}{
		{"delivered", &ProviderResult{Code: CodeDelivered}, OutcomeSuccess},
		{"processing", &ProviderResult{Code: CodeProcessing}, OutcomeAmbiguous},
		{"pending", &ProviderResult{Code: CodePending}, OutcomeAmbiguous},
		{"rejected", &ProviderResult{Code: "016", Description: "TRANSACTION FAILED"}, OutcomeFailure},
		{"product missing", &ProviderResult{Code: "012"}, OutcomeFailure},
		{"nil result", nil, OutcomeAmbiguous},
		{"empty code", &ProviderResult{Description: "weird body"}, OutcomeAmbiguous},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.result))
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
	assert.Equal(t, "ambiguous", OutcomeAmbiguous.String())
}
