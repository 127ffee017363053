package prompt_test

import (
	"strings"
	"testing"

	"github.com/MegaGrindStone/cv-assess-web/internal/prompt"
	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	jd := "Senior backend engineer, 5 years Go experience"
	cv := "3 years Python, 1 year Go, BSc CS"

	got := prompt.Compose(jd, cv)

	assert.True(t, strings.HasPrefix(got, "Generate Job assessment, requirements:"))
	assert.Contains(t, got, "match score and match percentage")
	assert.Contains(t, got, "PROS and CONS")
	assert.Contains(t, got, "Job Description:\n  "+jd+"\n  Candidate CV:\n  "+cv+"\n  Query:")
	assert.True(t, strings.HasSuffix(got, "Query:"))
}

func TestComposeExactText(t *testing.T) {
	want := "Generate Job assessment, requirements:\n" +
		"  I will provide the job description and the candidate CV, and you will generate the assessment.\n" +
		"  1. check if candidate has the required skills, experience or potential and education\n" +
		"  2. Generate match score and match percentage, provide PROS and CONS, provide insights.\n" +
		"  Job Description:\n" +
		"  Go developer\n" +
		"  Candidate CV:\n" +
		"  Ten years of Go\n" +
		"  Query:"

	assert.Equal(t, want, prompt.Compose("Go developer", "Ten years of Go"))
}

func TestComposeKeepsInputVerbatim(t *testing.T) {
	jd := "{{.Resume}} <b>&amp;</b>"
	cv := "line one\nline two"

	got := prompt.Compose(jd, cv)

	assert.Contains(t, got, "Job Description:\n  "+jd+"\n")
	assert.Contains(t, got, "Candidate CV:\n  "+cv+"\n")
}

func TestComposeEmptyInputs(t *testing.T) {
	got := prompt.Compose("", "")

	assert.Contains(t, got, "Job Description:\n  \n  Candidate CV:\n  \n  Query:")
}
