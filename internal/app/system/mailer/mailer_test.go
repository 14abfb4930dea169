package mailer

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestEnabled(t *testing.T) {
	if New("", 1025, "", "", "noreply@quorum.app", "Quorum", zap.NewNop()).Enabled() {
		t.Error("mailer without a host should be disabled")
	}
	if !New("smtp.example.com", 587, "", "", "noreply@quorum.app", "Quorum", zap.NewNop()).Enabled() {
		t.Error("mailer with a host should be enabled")
	}

	var m *Mailer
	if m.Enabled() {
		t.Error("nil mailer should be disabled")
	}
}

func TestSend_DisabledIsNoop(t *testing.T) {
	m := New("", 1025, "", "", "noreply@quorum.app", "Quorum", zap.NewNop())
	err := m.Send(context.Background(), Email{
		To:       "invitee@example.com",
		Subject:  "hello",
		TextBody: "hi",
	})
	if err != nil {
		t.Fatalf("disabled Send returned error: %v", err)
	}
}

func TestBuildInviteEmail(t *testing.T) {
	e := BuildInviteEmail(InviteEmailData{
		SiteName:      "Quorum",
		WorkspaceName: "Acme Corp",
		Role:          "member",
		InviteLink:    "https://quorum.app/invites/tok123",
		ExpiresIn:     "14 days",
	})

	if e.Subject != "You're invited to Acme Corp on Quorum" {
		t.Errorf("subject = %q", e.Subject)
	}
	for _, want := range []string{"Acme Corp", "member", "https://quorum.app/invites/tok123", "14 days"} {
		if !strings.Contains(e.TextBody, want) {
			t.Errorf("text body missing %q", want)
		}
		if !strings.Contains(e.HTMLBody, want) {
			t.Errorf("html body missing %q", want)
		}
	}
}

func TestBuildInviteEmail_EscapesHTML(t *testing.T) {
	e := BuildInviteEmail(InviteEmailData{
		SiteName:      "Quorum",
		WorkspaceName: `<script>alert("x")</script>`,
		Role:          "member",
		InviteLink:    "https://quorum.app/invites/tok123",
		ExpiresIn:     "14 days",
	})
	if strings.Contains(e.HTMLBody, "<script>") {
		t.Error("workspace name should be escaped in html body")
	}
}

func TestBuildMessage(t *testing.T) {
	m := New("smtp.example.com", 587, "", "", "noreply@quorum.app", "Quorum", zap.NewNop())

	t.Run("multipart when both bodies set", func(t *testing.T) {
		msg := string(m.buildMessage(Email{
			To:       "invitee@example.com",
			Subject:  "Invite",
			TextBody: "plain version",
			HTMLBody: "<p>html version</p>",
		}))
		for _, want := range []string{
			"To: invitee@example.com",
			"Subject: Invite",
			"multipart/alternative",
			"text/plain",
			"text/html",
			"plain version",
			"<p>html version</p>",
		} {
			if !strings.Contains(msg, want) {
				t.Errorf("message missing %q", want)
			}
		}
	})

	t.Run("plain text only", func(t *testing.T) {
		msg := string(m.buildMessage(Email{
			To:       "invitee@example.com",
			Subject:  "Invite",
			TextBody: "plain only",
		}))
		if strings.Contains(msg, "multipart/alternative") {
			t.Error("single-body message should not be multipart")
		}
		if !strings.Contains(msg, "plain only") {
			t.Error("message missing text body")
		}
	})
}
