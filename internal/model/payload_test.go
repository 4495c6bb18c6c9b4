package model

import "testing"

func TestCandidate(t *testing.T) {
	p := WebhookPayload{FileName: "cover.jpg", Width: 2400, Height: 1600}

	got := p.Candidate()
	want := CandidateOutputIdentity{FileName: "[WATERMARKED] cover.jpg", Width: 2400, Height: 1600}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestMarked(t *testing.T) {
	if got := Marked("Cover"); got != "[WATERMARKED] Cover" {
		t.Errorf("Expected marked title, got %q", got)
	}
}
