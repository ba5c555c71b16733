package messaging

import (
	"context"
	"testing"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/twiliosms"
)

// Ensure every delivery backend implements Service
func TestServiceImplementations(t *testing.T) {
	var _ Service = (*Simulator)(nil)
	var _ Service = (*SMSService)(nil)
	var _ Service = (*Dispatcher)(nil)
}

func testCommunication(channel models.Channel, recipient string) models.Communication {
	return models.Communication{
		ID:          "com_test",
		ChaseItemID: "chs_test",
		Channel:     channel,
		Direction:   models.DirectionOutbound,
		Recipient:   recipient,
		Content:     "Please return the signed form.",
	}
}

func TestSimulator_Deliver(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()

	comm := testCommunication(models.ChannelEmail, " client@example.com ")
	if err := sim.Deliver(ctx, comm); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	sent := sim.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sent))
	}
	if sent[0].Recipient != "client@example.com" {
		t.Errorf("expected trimmed recipient, got %q", sent[0].Recipient)
	}
	if sent[0].ChaseItemID != "chs_test" {
		t.Errorf("expected chase item chs_test, got %q", sent[0].ChaseItemID)
	}
}

func TestSimulator_EmptyRecipient(t *testing.T) {
	sim := NewSimulator()

	err := sim.Deliver(context.Background(), testCommunication(models.ChannelEmail, "   "))
	if err == nil {
		t.Fatal("expected error for empty recipient")
	}
	if len(sim.Sent()) != 0 {
		t.Errorf("expected no deliveries recorded, got %d", len(sim.Sent()))
	}
}

func TestSMSService_ValidateAndCanonicalizeRecipient(t *testing.T) {
	svc := NewSMSService(twiliosms.NewMockClient())

	tests := []struct {
		name      string
		recipient string
		want      string
		wantErr   bool
	}{
		{name: "formatted number", recipient: "+44 7700 900123", want: "447700900123"},
		{name: "plain digits", recipient: "447700900123", want: "447700900123"},
		{name: "empty", recipient: "", wantErr: true},
		{name: "no digits", recipient: "not-a-number", wantErr: true},
		{name: "too short", recipient: "12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ValidateAndCanonicalizeRecipient(tt.recipient)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got canonical %q", tt.recipient, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSMSService_Deliver(t *testing.T) {
	mock := twiliosms.NewMockClient()
	svc := NewSMSService(mock)

	comm := testCommunication(models.ChannelSMS, "+44 7700 900123")
	if err := svc.Deliver(context.Background(), comm); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mock.SentMessages))
	}
	if mock.SentMessages[0].To != "447700900123" {
		t.Errorf("expected canonicalized recipient, got %q", mock.SentMessages[0].To)
	}
	if mock.SentMessages[0].Body != comm.Content {
		t.Errorf("expected body %q, got %q", comm.Content, mock.SentMessages[0].Body)
	}
}

func TestDispatcher_RoutesByChannel(t *testing.T) {
	sim := NewSimulator()
	mock := twiliosms.NewMockClient()

	dispatcher := NewDispatcher(sim)
	dispatcher.Register(models.ChannelSMS, NewSMSService(mock))
	ctx := context.Background()

	if err := dispatcher.Deliver(ctx, testCommunication(models.ChannelSMS, "447700900123")); err != nil {
		t.Fatalf("SMS Deliver returned error: %v", err)
	}
	if err := dispatcher.Deliver(ctx, testCommunication(models.ChannelEmail, "client@example.com")); err != nil {
		t.Fatalf("email Deliver returned error: %v", err)
	}
	if err := dispatcher.Deliver(ctx, testCommunication(models.ChannelPhone, "447700900456")); err != nil {
		t.Fatalf("phone Deliver returned error: %v", err)
	}

	if len(mock.SentMessages) != 1 {
		t.Errorf("expected 1 SMS, got %d", len(mock.SentMessages))
	}
	sent := sim.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 simulated deliveries, got %d", len(sent))
	}
	if sent[0].Channel != models.ChannelEmail || sent[1].Channel != models.ChannelPhone {
		t.Errorf("unexpected simulated channels: %s, %s", sent[0].Channel, sent[1].Channel)
	}
}
