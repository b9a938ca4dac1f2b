package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Service is the external value transfer primitive. A disbursement either
// fully succeeds or fully fails within the calling operation.
type Service interface {
	Disburse(to string, amount uint64) error
}

type service struct {
	url        string
	httpClient *retryablehttp.Client
}

type disbursement struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type disbursementResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func NewPaymentService(url string, timeout int) Service {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = 3
	httpClient.HTTPClient.Timeout = time.Duration(timeout) * time.Second

	return service{url, httpClient}
}

func (s service) Disburse(to string, amount uint64) error {
	body, err := json.Marshal(disbursement{To: to, Amount: amount})
	if err != nil {
		return err
	}

	zap.L().With(zap.String("to", to), zap.Uint64("amount", amount)).Debug("Payments: Disburse")

	resp, err := s.httpClient.Post(fmt.Sprintf("%s/transfers", s.url), "application/json", bytes.NewReader(body))
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Payments: Request failure")
		return err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != 200 {
		return fmt.Errorf("payments: unexpected status %d", resp.StatusCode)
	}

	var result disbursementResult
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}

	if !result.Accepted {
		return fmt.Errorf("payments: disbursement rejected: %s", result.Reason)
	}

	return nil
}
