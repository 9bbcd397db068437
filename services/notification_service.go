package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FoldlyDev/foldly-sub005/models"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// NotificationService delivers verification codes over email (Mailgun)
// and records each delivery. Delivery is the external collaborator's
// job; the core only supplies the code and expiry.
type NotificationService struct {
	notificationCollection *mongo.Collection
	mailgunAPIKey          string
	mailgunDomain          string
	fromEmail              string
}

type MailgunMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

func NewNotificationService(db *mongo.Database, mailgunAPIKey, mailgunDomain, fromEmail string) *NotificationService {
	return &NotificationService{
		notificationCollection: db.Collection("notification_logs"),
		mailgunAPIKey:          mailgunAPIKey,
		mailgunDomain:          mailgunDomain,
		fromEmail:              fromEmail,
	}
}

// SendVerificationCode emails the one-time code for an editor promotion.
func (s *NotificationService) SendVerificationCode(ctx context.Context, permissionID primitive.ObjectID, email, code string, expiresAt time.Time) error {
	subject := "Your editor verification code"
	text := fmt.Sprintf("Your verification code is %s.\n\nIt expires at %s.\n\nIf you did not request editor access, you can ignore this email.",
		code, expiresAt.UTC().Format(time.RFC1123))

	html := fmt.Sprintf(`
		<h2>Editor Verification</h2>
		<p>Your verification code is <strong>%s</strong>.</p>
		<p>It expires at %s.</p>
		<p>If you did not request editor access, you can ignore this email.</p>
	`, code, expiresAt.UTC().Format(time.RFC1123))

	if err := s.sendEmail(ctx, email, subject, text, html); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	log := models.NotificationLog{
		ID:           primitive.NewObjectID(),
		PermissionID: permissionID,
		Email:        email,
		Type:         "verification_code",
		Subject:      subject,
		SentAt:       time.Now(),
	}

	if _, err := s.notificationCollection.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to log notification: %w", err)
	}

	return nil
}

func (s *NotificationService) sendEmail(ctx context.Context, to, subject, text, html string) error {
	if s.mailgunAPIKey == "" || s.mailgunDomain == "" {
		utils.LogWarning("email delivery skipped: mailgun not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.mailgun.net/v3/%s/messages", s.mailgunDomain)

	payload := MailgunMessage{
		From:    s.fromEmail,
		To:      to,
		Subject: subject,
		Text:    text,
		HTML:    html,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mailgun message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create mailgun request: %w", err)
	}

	req.SetBasicAuth("api", s.mailgunAPIKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mailgun request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mailgun responded with status: %s", resp.Status)
	}

	return nil
}
