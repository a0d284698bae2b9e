package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// Notifier delivers a one-time code to a phone number. Real SMS delivery
// lives behind this boundary; the service only cares about success or failure.
type Notifier interface {
	SendCode(mobileNumber, countryCode, code string) error
}

// LogNotifier writes the code to the process log instead of sending an SMS.
// This is the development delivery path; an SMS gateway client would replace
// it in production.
type LogNotifier struct{}

// SendCode logs the code and destination.
func (LogNotifier) SendCode(mobileNumber, countryCode, code string) error {
	log.Printf("[MOCK SMS] Sending OTP %s to %s%s", code, countryCode, mobileNumber)
	return nil
}

// SlackNotifier posts operational messages to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
}

// NewSlackNotifier creates a SlackNotifier for the given webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

type slackMessage struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// Notify sends a message to the configured webhook. A missing URL is not an
// error; the notifier is optional.
func (s *SlackNotifier) Notify(text string) error {
	if s.webhookURL == "" {
		log.Println("[Slack] Webhook URL not configured")
		return nil
	}

	body, err := json.Marshal(slackMessage{
		Text:     text,
		Username: "TrueNumber Backend",
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Slack] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Slack] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}
