package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"helpdetective/internal/logger"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendReport(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "relatorios@example.com", "Detetive da Ajuda", logger.Nop())
	csvData := []byte("session_id,total\n1,12\n")

	if err := svc.SendReport(context.Background(), "terapeuta@example.com", 4, csvData); err != nil {
		t.Fatalf("SendReport() error = %v", err)
	}

	if ses.input == nil || ses.input.Content.Raw == nil {
		t.Fatal("expected a raw message to be sent")
	}
	if got := ses.input.Destination.ToAddresses; len(got) != 1 || got[0] != "terapeuta@example.com" {
		t.Errorf("ToAddresses = %v", got)
	}
	raw := string(ses.input.Content.Raw.Data)
	for _, want := range []string{
		"To: terapeuta@example.com",
		"multipart/mixed",
		`filename=relatorio_tentativas_4.csv`,
		base64.StdEncoding.EncodeToString(csvData),
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("raw message missing %q", want)
		}
	}
}

func TestSendReportErrors(t *testing.T) {
	disabled := &EmailService{log: logger.Nop()}
	if err := disabled.SendReport(context.Background(), "a@example.com", 1, nil); !errors.Is(err, ErrEmailDisabled) {
		t.Errorf("disabled error = %v", err)
	}

	ses := &fakeSES{}
	svc := newEmailService(ses, "from@example.com", "", logger.Nop())
	if err := svc.SendReport(context.Background(), "not-an-address", 1, nil); err == nil {
		t.Error("invalid recipient should fail")
	}
	if ses.input != nil {
		t.Error("nothing should be sent to an invalid recipient")
	}

	ses.err = errors.New("throttled")
	if err := svc.SendReport(context.Background(), "a@example.com", 1, nil); err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Errorf("SES error not surfaced: %v", err)
	}
}

func TestWriteBase64WrapsLines(t *testing.T) {
	var sb strings.Builder
	if err := writeBase64(&sb, make([]byte, 200)); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\r\n"), "\r\n") {
		if len(line) > 76 {
			t.Errorf("line of %d chars exceeds 76", len(line))
		}
	}
}
