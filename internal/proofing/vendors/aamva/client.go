// Package aamva implements the AAMVA DLDV vendor for the state_id stage.
// DLDV verifies a driver's license or state ID number against the issuing
// jurisdiction's records.
package aamva

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"idproof/internal/proofing/models"
	"idproof/internal/proofing/vendors"
)

// Credentials carries the DLDV account settings.
type Credentials struct {
	BaseURL  string
	ClientID string
	Secret   string
}

// Client calls the DLDV verification endpoint.
type Client struct {
	creds      Credentials
	httpClient *http.Client
}

// New builds the state_id vendor.
func New(creds Credentials, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{creds: creds, httpClient: httpClient}
}

func (c *Client) Name() string        { return "aamva" }
func (c *Client) Stage() models.Stage { return models.StageStateID }

type dldvRequest struct {
	DocumentNumber string `json:"document_number"`
	DocumentType   string `json:"document_type"`
	Jurisdiction   string `json:"jurisdiction"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DOB            string `json:"dob"`
}

type dldvResponse struct {
	Verified      bool              `json:"verified"`
	TransactionID string            `json:"transaction_id"`
	Attributes    map[string]string `json:"attributes"`
}

// dldvFieldNames maps DLDV attribute verification keys onto applicant fields.
var dldvFieldNames = map[string]string{
	"document_number": "state_id_number",
	"first_name":      "first_name",
	"last_name":       "last_name",
	"dob":             "dob",
}

func (c *Client) Proof(ctx context.Context, applicant models.Applicant) (vendors.Response, error) {
	payload := dldvRequest{
		DocumentNumber: applicant.StateIDNumber,
		DocumentType:   applicant.StateIDType,
		Jurisdiction:   applicant.StateIDJurisdiction,
		FirstName:      applicant.FirstName,
		LastName:       applicant.LastName,
		DOB:            applicant.DOB,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return vendors.Response{}, fmt.Errorf("marshal dldv request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.BaseURL+"/dldv/verify", bytes.NewReader(body))
	if err != nil {
		return vendors.Response{}, fmt.Errorf("build dldv request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.creds.ClientID, c.creds.Secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if vendors.IsTimeout(err) {
			return vendors.Response{}, vendors.NewTimeoutError(c.Name(), err)
		}
		return vendors.Response{}, fmt.Errorf("dldv call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return vendors.Response{}, fmt.Errorf("dldv call returned status %d", resp.StatusCode)
	}

	var decoded dldvResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return vendors.Response{}, fmt.Errorf("decode dldv response: %w", err)
	}

	errs := map[string][]string{}
	var reasons []string
	for attr, status := range decoded.Attributes {
		reasons = append(reasons, fmt.Sprintf("%s: %s", attr, status))
		if status == "no_match" {
			field, ok := dldvFieldNames[attr]
			if !ok {
				field = "base"
			}
			errs[field] = append(errs[field], fmt.Sprintf("The %s could not be verified.", attr))
		}
	}

	success := decoded.Verified && len(errs) == 0
	out := vendors.Response{
		Success:   success,
		Errors:    errs,
		Reasons:   reasons,
		SessionID: decoded.TransactionID,
	}
	if success {
		normalized := applicant
		out.NormalizedApplicant = &normalized
	}
	return out, nil
}
