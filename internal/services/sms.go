package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// SMSSender delivers one text message and returns the provider message ID.
type SMSSender interface {
	SendText(phone, body string) (string, error)
}

// HTTPSMSSender posts messages to an SMS gateway.
type HTTPSMSSender struct {
	apiURL   string
	apiToken string
	sender   string
}

// NewHTTPSMSSender constructs an HTTPSMSSender.
func NewHTTPSMSSender(apiURL, apiToken, sender string) *HTTPSMSSender {
	return &HTTPSMSSender{apiURL: apiURL, apiToken: apiToken, sender: sender}
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type smsResponse struct {
	MessageID string `json:"message_id"`
}

// SendText posts the message to the gateway and returns its message ID.
func (s *HTTPSMSSender) SendText(phone, body string) (string, error) {
	payload, err := json.Marshal(smsRequest{To: phone, From: s.sender, Message: body})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", &ExternalServiceError{Service: "sms", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ExternalServiceError{Service: "sms", Err: fmt.Errorf("gateway returned status %d", resp.StatusCode)}
	}

	var parsed smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ExternalServiceError{Service: "sms", Err: err}
	}

	return parsed.MessageID, nil
}

// LogSMSSender writes messages to the log. Used when no gateway is configured.
type LogSMSSender struct{}

// SendText logs the message instead of delivering it.
func (LogSMSSender) SendText(phone, body string) (string, error) {
	log.Printf("[SMS] to=%s body=%q (log-only transport)", phone, body)
	return "log-only", nil
}
