package domain

import (
	"time"

	dErrors "inscrito/pkg/domain-errors"
)

// BirthDate is a calendar date in the past, stored at UTC midnight.
type BirthDate time.Time

const birthDateLayout = "2006-01-02"

// maxAgeYears bounds how far back a birth date may reasonably lie.
const maxAgeYears = 130

// ParseBirthDate accepts an ISO date string ("1990-04-21").
func ParseBirthDate(s string) (BirthDate, error) {
	t, err := time.Parse(birthDateLayout, s)
	if err != nil {
		return BirthDate{}, dErrors.New(dErrors.CodeValidation, "birth date must be YYYY-MM-DD").WithField("birth_date", "must be YYYY-MM-DD")
	}
	return birthDateFromTime(t)
}

func birthDateFromTime(t time.Time) (BirthDate, error) {
	now := time.Now().UTC()
	if t.After(now) {
		return BirthDate{}, dErrors.New(dErrors.CodeValidation, "birth date cannot be in the future").WithField("birth_date", "cannot be in the future")
	}
	if t.Before(now.AddDate(-maxAgeYears, 0, 0)) {
		return BirthDate{}, dErrors.New(dErrors.CodeValidation, "birth date is too far in the past").WithField("birth_date", "too far in the past")
	}
	return BirthDate(t), nil
}

func (b BirthDate) Time() time.Time { return time.Time(b) }
func (b BirthDate) IsZero() bool    { return time.Time(b).IsZero() }

func (b BirthDate) String() string {
	if b.IsZero() {
		return ""
	}
	return time.Time(b).Format(birthDateLayout)
}

func (b BirthDate) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *BirthDate) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*b = BirthDate{}
		return nil
	}
	parsed, err := ParseBirthDate(string(data))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Gender is self-declared and optional in most flows.
type Gender string

const (
	GenderMale        Gender = "masculino"
	GenderFemale      Gender = "feminino"
	GenderOther       Gender = "outro"
	GenderUndisclosed Gender = "nao_informado"
)

var validGenders = map[Gender]bool{
	GenderMale:        true,
	GenderFemale:      true,
	GenderOther:       true,
	GenderUndisclosed: true,
}

// ParseGender constructs a Gender from external input. Empty input maps to
// GenderUndisclosed.
func ParseGender(s string) (Gender, error) {
	if s == "" {
		return GenderUndisclosed, nil
	}
	g := Gender(s)
	if !validGenders[g] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid gender").WithField("gender", "invalid value")
	}
	return g, nil
}

func (g Gender) String() string { return string(g) }
