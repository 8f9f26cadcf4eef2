// Package lexisnexis implements the LexisNexis verification vendors. One
// client type covers the three products we buy (InstantVerify for resolution,
// address verification, PhoneFinder); each is registered as its own
// stage-tagged vendor.
package lexisnexis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"idproof/internal/proofing/models"
	"idproof/internal/proofing/vendors"
)

// Credentials carries the account settings issued by LexisNexis. The struct
// is populated from config at startup and never mutated.
type Credentials struct {
	BaseURL   string
	AccountID string
	Username  string
	Password  string
	Mode      string
}

type client struct {
	creds      Credentials
	httpClient *http.Client
	stage      models.Stage
	workflow   string
}

// NewResolution builds the InstantVerify vendor for the resolution stage.
func NewResolution(creds Credentials, httpClient *http.Client) vendors.Vendor {
	return newClient(creds, httpClient, models.StageResolution, "customers.gsa.instant.verify.workflow")
}

// NewAddress builds the address verification vendor.
func NewAddress(creds Credentials, httpClient *http.Client) vendors.Vendor {
	return newClient(creds, httpClient, models.StageAddress, "customers.gsa.address.workflow")
}

// NewPhoneFinder builds the PhoneFinder vendor.
func NewPhoneFinder(creds Credentials, httpClient *http.Client) vendors.Vendor {
	return newClient(creds, httpClient, models.StagePhoneFinder, "customers.gsa.phonefinder.workflow")
}

func newClient(creds Credentials, httpClient *http.Client, stage models.Stage, workflow string) *client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{creds: creds, httpClient: httpClient, stage: stage, workflow: workflow}
}

func (c *client) Name() string        { return "lexisnexis" }
func (c *client) Stage() models.Stage { return c.stage }

// request/response shapes follow the RDP v2 JSON contract.
type rdpRequest struct {
	Settings rdpSettings   `json:"Settings"`
	Persons  []rdpPerson   `json:"Persons"`
	Type     string        `json:"Type"`
	Products []rdpWorkflow `json:"Products,omitempty"`
}

type rdpSettings struct {
	AccountNumber string `json:"AccountNumber"`
	Mode          string `json:"Mode"`
	Reference     string `json:"Reference"`
}

type rdpWorkflow struct {
	Workflow string `json:"Workflow"`
}

type rdpPerson struct {
	Name      rdpName    `json:"Name"`
	SSN       string     `json:"SocialSecurityNumber,omitempty"`
	DOB       string     `json:"DateOfBirth,omitempty"`
	Addresses []rdpAddr  `json:"Addresses,omitempty"`
	Phones    []rdpPhone `json:"Phones,omitempty"`
}

type rdpName struct {
	First  string `json:"FirstName"`
	Middle string `json:"MiddleName,omitempty"`
	Last   string `json:"LastName"`
}

type rdpAddr struct {
	StreetAddress1 string `json:"StreetAddress1"`
	StreetAddress2 string `json:"StreetAddress2,omitempty"`
	City           string `json:"City"`
	State          string `json:"State"`
	Zip            string `json:"Zip5"`
}

type rdpPhone struct {
	Number string `json:"Number"`
}

type rdpResponse struct {
	Status struct {
		TransactionStatus string `json:"TransactionStatus"`
		ConversationID    string `json:"ConversationId"`
	} `json:"Status"`
	Products []struct {
		ProductStatus string `json:"ProductStatus"`
		Items         []struct {
			ItemName   string `json:"ItemName"`
			ItemStatus string `json:"ItemStatus"`
			ItemReason struct {
				Code string `json:"Code"`
			} `json:"ItemReason"`
		} `json:"Items"`
	} `json:"Products"`
}

// checkToField maps RDP item names onto applicant fields for error reporting.
var checkToField = map[string]string{
	"SsnFullNameMatch":    "ssn",
	"SsnDeathMatch":       "ssn",
	"IdentityOccupancy":   "address1",
	"AddrDeliverable":     "address1",
	"PhoneSubjectMatch":   "phone",
	"DOBFullVerified":     "dob",
	"DOBYearVerified":     "dob",
	"IdentityTheftNonSsn": "first_name",
}

func (c *client) Proof(ctx context.Context, applicant models.Applicant) (vendors.Response, error) {
	payload := rdpRequest{
		Settings: rdpSettings{
			AccountNumber: c.creds.AccountID,
			Mode:          c.creds.Mode,
			Reference:     applicant.UUID,
		},
		Type: "Initiate",
		Products: []rdpWorkflow{
			{Workflow: c.workflow},
		},
		Persons: []rdpPerson{personFromApplicant(applicant)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return vendors.Response{}, fmt.Errorf("marshal rdp request: %w", err)
	}

	url := fmt.Sprintf("%s/restws/identity/v2/%s/%s/conversation", c.creds.BaseURL, c.creds.AccountID, c.workflow)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return vendors.Response{}, fmt.Errorf("build rdp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.creds.Username, c.creds.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if vendors.IsTimeout(err) {
			return vendors.Response{}, vendors.NewTimeoutError(c.Name(), err)
		}
		return vendors.Response{}, fmt.Errorf("rdp call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return vendors.Response{}, fmt.Errorf("rdp call returned status %d", resp.StatusCode)
	}

	var decoded rdpResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return vendors.Response{}, fmt.Errorf("decode rdp response: %w", err)
	}

	return c.toResponse(decoded, applicant), nil
}

func (c *client) toResponse(decoded rdpResponse, applicant models.Applicant) vendors.Response {
	errs := map[string][]string{}
	var reasons []string
	passed := decoded.Status.TransactionStatus == "passed"

	for _, product := range decoded.Products {
		for _, item := range product.Items {
			if item.ItemReason.Code != "" {
				reasons = append(reasons, fmt.Sprintf("%s: %s", item.ItemName, item.ItemReason.Code))
			}
			if item.ItemStatus == "fail" {
				field, ok := checkToField[item.ItemName]
				if !ok {
					field = "base"
				}
				errs[field] = append(errs[field], fmt.Sprintf("%s did not verify.", item.ItemName))
			}
		}
	}

	success := passed && len(errs) == 0
	out := vendors.Response{
		Success:   success,
		Errors:    errs,
		Reasons:   reasons,
		SessionID: decoded.Status.ConversationID,
	}
	if success {
		normalized := applicant
		out.NormalizedApplicant = &normalized
	}
	return out
}

func personFromApplicant(applicant models.Applicant) rdpPerson {
	person := rdpPerson{
		Name: rdpName{
			First:  applicant.FirstName,
			Middle: applicant.MiddleName,
			Last:   applicant.LastName,
		},
		SSN: applicant.SSN,
		DOB: applicant.DOB,
	}
	if applicant.Address1 != "" {
		person.Addresses = append(person.Addresses, rdpAddr{
			StreetAddress1: applicant.Address1,
			StreetAddress2: applicant.Address2,
			City:           applicant.City,
			State:          applicant.State,
			Zip:            applicant.ZipCode,
		})
	}
	if applicant.Phone != "" {
		person.Phones = append(person.Phones, rdpPhone{Number: applicant.Phone})
	}
	return person
}
