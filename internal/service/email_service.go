package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"helpdetective/internal/logger"
	"helpdetective/internal/validation"
)

// ErrEmailDisabled is returned when no sender address is configured
var ErrEmailDisabled = validation.ValidationError{Field: "email", Message: "report e-mail is not configured"}

// sesSender is the part of the SES v2 client used here
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Attachment is a file sent along with an e-mail
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailService sends report e-mails via Amazon SES
type EmailService struct {
	client    sesSender
	fromEmail string
	fromName  string
	log       *logger.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, log *logger.Logger) (*EmailService, error) {
	if log == nil {
		log = logger.Nop()
	}
	if fromEmail == "" {
		log.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, log), nil
}

func newEmailService(client sesSender, fromEmail, fromName string, log *logger.Logger) *EmailService {
	return &EmailService{client: client, fromEmail: fromEmail, fromName: fromName, log: log}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.client != nil
}

// SendReport e-mails a patient's CSV report to toEmail
func (s *EmailService) SendReport(ctx context.Context, toEmail string, patientID int64, csvData []byte) error {
	if !s.IsEnabled() {
		return ErrEmailDisabled
	}
	if err := validation.ValidateEmail(toEmail); err != nil {
		return err
	}

	subject := fmt.Sprintf("Relatório de tentativas - paciente #%d", patientID)
	body := fmt.Sprintf("Segue em anexo o relatório de tentativas do paciente #%d.\n", patientID)
	attachment := Attachment{
		Filename:    CSVFilename(patientID),
		ContentType: "text/csv; charset=utf-8",
		Data:        csvData,
	}

	raw, err := buildRawMessage(s.fromAddress(), strings.TrimSpace(toEmail), subject, body, attachment)
	if err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromAddress()),
		Destination: &types.Destination{
			ToAddresses: []string{strings.TrimSpace(toEmail)},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send report e-mail: %w", err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.log.Info("Report e-mail sent", "patient_id", patientID, "message_id", messageID)
	return nil
}

func (s *EmailService) fromAddress() string {
	if s.fromName == "" {
		return s.fromEmail
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.fromName), s.fromEmail)
}

// buildRawMessage renders a multipart/mixed message with a text body and one attachment
func buildRawMessage(from, to, subject, body string, att Attachment) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textHeader.Set("Content-Transfer-Encoding", "base64")
	part, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	if err := writeBase64(part, []byte(body)); err != nil {
		return nil, err
	}

	attHeader := textproto.MIMEHeader{}
	attHeader.Set("Content-Type", att.ContentType)
	attHeader.Set("Content-Transfer-Encoding", "base64")
	attHeader.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))
	part, err = mw.CreatePart(attHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment part: %w", err)
	}
	if err := writeBase64(part, att.Data); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBase64 writes data base64-encoded in 76-column lines
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", encoded[:76]); err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}
		encoded = encoded[76:]
	}
	if _, err := fmt.Fprintf(w, "%s\r\n", encoded); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}
