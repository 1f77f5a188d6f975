package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fraud-risk-engine/internal/domain/fraud"
)

// Validator calls an external bank connector gateway to check that a
// beneficiary account exists and is active. Callers treat any error as an
// inconclusive result: bank validation advises, it never blocks on outage.
type Validator struct {
	endpoint string
	client   *http.Client
}

// NewValidator creates a bank validation client.
func NewValidator(endpoint string, timeout time.Duration) *Validator {
	return &Validator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type validationResponse struct {
	Exists               bool `json:"exists"`
	Active               bool `json:"active"`
	HasPriorTransactions bool `json:"has_prior_transactions"`
}

// Validate implements fraud.BankValidator.
func (v *Validator) Validate(ctx context.Context, connector, beneficiaryAccount string) (fraud.BankValidationResult, error) {
	url := fmt.Sprintf("%s/connectors/%s/accounts/%s/validate", v.endpoint, connector, beneficiaryAccount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fraud.BankValidationResult{Inconclusive: true}, fmt.Errorf("build validation request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fraud.BankValidationResult{Inconclusive: true}, fmt.Errorf("%w: %v", fraud.ErrValidatorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fraud.BankValidationResult{Inconclusive: true}, fmt.Errorf("%w: status %d", fraud.ErrValidatorUnavailable, resp.StatusCode)
	}

	var out validationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fraud.BankValidationResult{Inconclusive: true}, fmt.Errorf("decode validation response: %w", err)
	}

	return fraud.BankValidationResult{
		Exists:               out.Exists,
		Active:               out.Active,
		HasPriorTransactions: out.HasPriorTransactions,
	}, nil
}
