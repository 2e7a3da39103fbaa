package session

import "testing"

func TestDetectContact(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		wantEmail string
		wantPhone string
	}{
		{
			name:      "email only",
			utterance: "you can reach me at jane.doe@acme.com anytime",
			wantEmail: "jane.doe@acme.com",
		},
		{
			name:      "international phone",
			utterance: "call me on +31 6 12345678",
			wantPhone: "+31612345678",
		},
		{
			name:      "both",
			utterance: "jane@acme.com or +31612345678 works",
			wantEmail: "jane@acme.com",
			wantPhone: "+31612345678",
		},
		{
			name:      "short digit run is not a phone",
			utterance: "we are a team of 12 people",
		},
		{
			name:      "plain chatter",
			utterance: "sounds good, talk soon",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, phone := detectContact(tt.utterance, "NL")
			if email != tt.wantEmail {
				t.Errorf("email = %q, want %q", email, tt.wantEmail)
			}
			if phone != tt.wantPhone {
				t.Errorf("phone = %q, want %q", phone, tt.wantPhone)
			}
		})
	}
}
