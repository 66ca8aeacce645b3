package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollQueryNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain digits pass through", "502760", "502760"},
		{"surrounding whitespace trimmed", "  721942  ", "721942"},
		{"separators stripped", "72-19 42", "721942"},
		{"letters stripped", "roll#999999", "999999"},
		{"empty stays empty", "", ""},
		{"whitespace only becomes empty", "   ", ""},
		{"no digits becomes empty", "abc-def", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RollQuery{RollNumber: tt.in}.Normalize()
			assert.Equal(t, tt.want, got.RollNumber)
		})
	}
}

func TestRollQueryNormalizeKeepsExamFields(t *testing.T) {
	q := RollQuery{RollNumber: " 502760 ", ExamYear: 2022, ExamType: " Diploma in Engineering "}
	got := q.Normalize()

	assert.Equal(t, "502760", got.RollNumber)
	assert.Equal(t, 2022, got.ExamYear)
	assert.Equal(t, "Diploma in Engineering", got.ExamType)
}

func TestSourceKindIsValid(t *testing.T) {
	assert.True(t, KindPrimaryStore.IsValid())
	assert.True(t, KindFallbackStore.IsValid())
	assert.True(t, KindWebAPI.IsValid())
	assert.False(t, SourceKind("mystery").IsValid())
}
