// Package prompt composes the instruction text sent to the language model for a candidate assessment.
package prompt

import (
	"strings"
	"text/template"
)

// Continuation lines carry a two-space indent, the model has always been prompted with it.
const assessmentTemplate = `Generate Job assessment, requirements:
  I will provide the job description and the candidate CV, and you will generate the assessment.
  1. check if candidate has the required skills, experience or potential and education
  2. Generate match score and match percentage, provide PROS and CONS, provide insights.
  Job Description:
  {{.JobDescription}}
  Candidate CV:
  {{.Resume}}
  Query:`

var assessment = template.Must(template.New("assessment").Parse(assessmentTemplate))

// Compose interpolates the job description and résumé into the assessment template. Both inputs are
// inserted verbatim; empty strings are allowed and leave their section blank.
func Compose(jobDescription, resume string) string {
	var sb strings.Builder
	// Executing a parsed template over a struct of strings into a strings.Builder cannot fail.
	_ = assessment.Execute(&sb, struct {
		JobDescription string
		Resume         string
	}{
		JobDescription: jobDescription,
		Resume:         resume,
	})
	return sb.String()
}
