package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

func strPtr(s string) *string { return &s }

func TestRenderSubstitutesCandidateFields(t *testing.T) {
	candidate := models.Candidate{
		FullName:      "Ali Rezaei",
		Position:      "Backend Engineer",
		InterviewDate: strPtr("1402/05/01"),
		InterviewTime: strPtr("10:00"),
	}

	out := Render("Hi {{candidateName}}, interview for {{position}} on {{interviewDate}} at {{interviewTime}}.", candidate, nil)
	assert.Equal(t, "Hi Ali Rezaei, interview for Backend Engineer on 1402/05/01 at 10:00.", out)
}

func TestRenderUnknownTokenSurvives(t *testing.T) {
	out := Render("Hi {{candidateName}}, see you {{unknownToken}}", models.Candidate{FullName: "Ali"}, nil)
	assert.Equal(t, "Hi Ali, see you {{unknownToken}}", out)
}

func TestRenderMissingInterviewDefaultsToNotSet(t *testing.T) {
	out := Render("{{interviewDate}} {{interviewTime}}", models.Candidate{}, nil)
	assert.Equal(t, NotSet+" "+NotSet, out)
}

func TestRenderExtrasWinOverNothingButNotIdentity(t *testing.T) {
	candidate := models.Candidate{FullName: "Sara"}
	extra := map[string]string{
		"companyName":   "Acme",
		"stageName":     "Interview 1",
		"candidateName": "Impostor",
	}

	out := Render("{{companyName}}: {{candidateName}} -> {{stageName}}", candidate, extra)
	assert.Equal(t, "Acme: Sara -> Interview 1", out)
}

func TestRenderUnterminatedTokenLeftAlone(t *testing.T) {
	out := Render("Hello {{candidateName", models.Candidate{FullName: "Ali"}, nil)
	assert.Equal(t, "Hello {{candidateName", out)
}

func TestHas(t *testing.T) {
	assert.True(t, Has("Offer for {{position}}", "position"))
	assert.False(t, Has("Offer for {{position}}", "candidateName"))
}
