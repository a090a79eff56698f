package submission

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"BeatWave/model"
)

// Default size ceilings for uploaded blobs. Enforced here, before
// persistence, never as database constraints.
const (
	MaxAudioSize int64 = 50 << 20 // 50 MB
	MaxCoverSize int64 = 5 << 20  // 5 MB
)

// Validator checks submissions against blob size ceilings. Ceilings come
// from configuration; the zero limits fall back to the package defaults.
type Validator struct {
	maxAudioSize int64
	maxCoverSize int64
}

// NewValidator creates a Validator with the given ceilings in bytes.
func NewValidator(maxAudioSize, maxCoverSize int64) *Validator {
	if maxAudioSize <= 0 {
		maxAudioSize = MaxAudioSize
	}
	if maxCoverSize <= 0 {
		maxCoverSize = MaxCoverSize
	}
	return &Validator{maxAudioSize: maxAudioSize, maxCoverSize: maxCoverSize}
}

// Submission is one candidate beat as received from the upload surface.
// Blobs travel separately as opaque readers; only their declared sizes are
// part of validation.
type Submission struct {
	Title        string          `json:"title"`
	Genre        string          `json:"genre"`
	BPM          int             `json:"bpm"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Tags         []string        `json:"tags"`
	FreeDownload bool            `json:"freeDownload"`

	AudioSize int64 `json:"audioSize"` // 0 means no audio file was supplied
	CoverSize int64 `json:"coverSize"` // 0 means no cover was supplied
}

// ValidatedBeat is the outcome of a successful validation: normalized
// fields, ready to be bound to a producer and persisted by the caller.
type ValidatedBeat struct {
	Title        string
	Genre        string
	BPM          int
	Price        decimal.Decimal
	Description  string
	Tags         model.TagList
	FreeDownload bool
}

// scalarFieldOrder fixes which failing field is reported when several
// scalar rules fail at once.
var scalarFieldOrder = []string{"title", "genre", "bpm", "price"}

// Validate checks one submission against the default ceilings.
func Validate(sub Submission) (*ValidatedBeat, error) {
	return NewValidator(0, 0).Validate(sub)
}

// Validate checks one submission. It is pure: no state is kept between
// calls and nothing is persisted. On failure it returns either
// *PayloadTooLargeError or *InvalidSubmissionError.
func (v *Validator) Validate(sub Submission) (*ValidatedBeat, error) {
	// Blob checks first: an oversized upload should be rejected before any
	// field-level feedback.
	if sub.AudioSize <= 0 {
		return nil, &InvalidSubmissionError{Field: "audio", Reason: "an audio file is required"}
	}
	if sub.AudioSize > v.maxAudioSize {
		return nil, &PayloadTooLargeError{Field: "audio", Size: sub.AudioSize, Limit: v.maxAudioSize}
	}
	if sub.CoverSize > v.maxCoverSize {
		return nil, &PayloadTooLargeError{Field: "cover", Size: sub.CoverSize, Limit: v.maxCoverSize}
	}

	err := validation.ValidateStruct(&sub,
		validation.Field(&sub.Title, validation.Required.Error("is required")),
		validation.Field(&sub.Genre,
			validation.Required.Error("is required"),
			validation.By(genreRule),
		),
		validation.Field(&sub.BPM,
			validation.Required.Error("is required"),
			validation.Min(1).Error("must be positive"),
		),
		validation.Field(&sub.Price, validation.By(priceRule)),
	)
	if err != nil {
		if errs, ok := err.(validation.Errors); ok {
			for _, field := range scalarFieldOrder {
				if fieldErr, found := errs[field]; found {
					return nil, &InvalidSubmissionError{Field: field, Reason: fieldErr.Error()}
				}
			}
		}
		return nil, &InvalidSubmissionError{Field: "submission", Reason: err.Error()}
	}

	return &ValidatedBeat{
		Title:        sub.Title,
		Genre:        sub.Genre,
		BPM:          sub.BPM,
		Price:        sub.Price,
		Description:  sub.Description,
		Tags:         model.NormalizeTags(sub.Tags),
		FreeDownload: sub.FreeDownload,
	}, nil
}

func genreRule(value interface{}) error {
	genre, _ := value.(string)
	if genre == "" {
		return nil // Required already covers the empty case
	}
	if !model.IsValidGenre(genre) {
		return validation.NewError("validation_genre", "is not a known genre")
	}
	return nil
}

func priceRule(value interface{}) error {
	price, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_price", "is malformed")
	}
	if price.IsNegative() {
		return validation.NewError("validation_price", "must not be negative")
	}
	return nil
}
