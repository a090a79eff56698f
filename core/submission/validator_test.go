package submission

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Title:     "Night Drive",
		Genre:     "Trap",
		BPM:       140,
		Price:     decimal.NewFromInt(30),
		Tags:      []string{"dark", "808"},
		AudioSize: 10 << 20,
		CoverSize: 1 << 20,
	}
}

func TestValidateAcceptsValidSubmission(t *testing.T) {
	validated, err := Validate(validSubmission())
	require.NoError(t, err)
	require.NotNil(t, validated)

	assert.Equal(t, "Night Drive", validated.Title)
	assert.Equal(t, "Trap", validated.Genre)
	assert.Equal(t, 140, validated.BPM)
	assert.True(t, validated.Price.Equal(decimal.NewFromInt(30)))
}

func TestValidateRejectsOversizedAudio(t *testing.T) {
	sub := validSubmission()
	sub.AudioSize = 60 << 20

	_, err := Validate(sub)
	var tooLarge *PayloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "audio", tooLarge.Field)
	assert.Equal(t, MaxAudioSize, tooLarge.Limit)
}

func TestValidateRejectsOversizedCover(t *testing.T) {
	sub := validSubmission()
	sub.CoverSize = 6 << 20

	_, err := Validate(sub)
	var tooLarge *PayloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "cover", tooLarge.Field)
	assert.Equal(t, MaxCoverSize, tooLarge.Limit)
}

func TestValidateAudioAtLimitPasses(t *testing.T) {
	sub := validSubmission()
	sub.AudioSize = MaxAudioSize

	_, err := Validate(sub)
	require.NoError(t, err)
}

func TestValidateRequiresAudio(t *testing.T) {
	sub := validSubmission()
	sub.AudioSize = 0

	_, err := Validate(sub)
	var invalid *InvalidSubmissionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "audio", invalid.Field)
}

func TestValidateCoverIsOptional(t *testing.T) {
	sub := validSubmission()
	sub.CoverSize = 0

	_, err := Validate(sub)
	require.NoError(t, err)
}

func TestValidateMissingScalars(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Submission)
		field  string
	}{
		{"missing title", func(s *Submission) { s.Title = "" }, "title"},
		{"missing genre", func(s *Submission) { s.Genre = "" }, "genre"},
		{"unknown genre", func(s *Submission) { s.Genre = "Vaporwave" }, "genre"},
		{"missing bpm", func(s *Submission) { s.BPM = 0 }, "bpm"},
		{"negative bpm", func(s *Submission) { s.BPM = -10 }, "bpm"},
		{"negative price", func(s *Submission) { s.Price = decimal.NewFromInt(-1) }, "price"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(&sub)

			_, err := Validate(sub)
			var invalid *InvalidSubmissionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestValidateReportsFirstFailingField(t *testing.T) {
	sub := validSubmission()
	sub.Title = ""
	sub.BPM = 0

	_, err := Validate(sub)
	var invalid *InvalidSubmissionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "title", invalid.Field)
}

func TestValidateNormalizesTags(t *testing.T) {
	sub := validSubmission()
	sub.Tags = []string{" Dark ", "808", "dark", "", "Trap Soul"}

	validated, err := Validate(sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"dark", "808", "trap soul"}, []string(validated.Tags))
}

func TestValidateDefaultsPriceToZero(t *testing.T) {
	sub := validSubmission()
	sub.Price = decimal.Decimal{}

	validated, err := Validate(sub)
	require.NoError(t, err)
	assert.True(t, validated.Price.IsZero())
}

func TestValidateIsPure(t *testing.T) {
	sub := validSubmission()
	sub.AudioSize = 60 << 20

	_, err1 := Validate(sub)
	_, err2 := Validate(sub)
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, err1.Error(), err2.Error())

	// A failing call leaves no state behind that could affect a valid one.
	_, err := Validate(validSubmission())
	assert.NoError(t, err)
	assert.False(t, errors.Is(err, err1))
}

func TestValidatorConfiguredCeilings(t *testing.T) {
	v := NewValidator(1<<20, 512<<10)

	sub := validSubmission()
	sub.AudioSize = 2 << 20
	_, err := v.Validate(sub)
	var tooLarge *PayloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "audio", tooLarge.Field)
	assert.Equal(t, int64(1<<20), tooLarge.Limit)

	sub = validSubmission()
	sub.AudioSize = 1 << 20
	sub.CoverSize = 600 << 10
	_, err = v.Validate(sub)
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "cover", tooLarge.Field)
	assert.Equal(t, int64(512<<10), tooLarge.Limit)
}

func TestNewValidatorZeroLimitsUseDefaults(t *testing.T) {
	v := NewValidator(0, 0)

	sub := validSubmission()
	sub.AudioSize = MaxAudioSize + 1
	_, err := v.Validate(sub)
	var tooLarge *PayloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, MaxAudioSize, tooLarge.Limit)
}
