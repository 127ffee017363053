package models_test

import (
	"strings"
	"testing"

	"github.com/MegaGrindStone/cv-assess-web/internal/models"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     []string
		dontWant []string
	}{
		{
			name: "Heading and list",
			text: "## Pros\n- 5 years Go\n- BSc CS",
			want: []string{"<h2>Pros</h2>", "<li>5 years Go</li>", "<li>BSc CS</li>"},
		},
		{
			name: "Empty text",
			text: "",
		},
		{
			name: "Unterminated emphasis",
			text: "Match score: **62",
			want: []string{"Match score: **62"},
		},
		{
			name:     "Raw HTML is omitted",
			text:     "<script>alert(1)</script>",
			dontWant: []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.RenderMarkdown(tt.text)
			if err != nil {
				t.Fatalf("RenderMarkdown() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("RenderMarkdown() = %q, want to contain %q", got, w)
				}
			}
			for _, w := range tt.dontWant {
				if strings.Contains(got, w) {
					t.Errorf("RenderMarkdown() = %q, want not to contain %q", got, w)
				}
			}
		})
	}
}

func TestParseVibe(t *testing.T) {
	tests := []struct {
		in   string
		want models.Vibe
	}{
		{"Professional", models.VibeProfessional},
		{"Casual", models.VibeCasual},
		{"Funny", models.VibeFunny},
		{"", models.VibeProfessional},
		{"casual", models.VibeProfessional},
	}

	for _, tt := range tests {
		if got := models.ParseVibe(tt.in); got != tt.want {
			t.Errorf("ParseVibe(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
