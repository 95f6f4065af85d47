package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"lyyti/internal"
)

type Reason string

const (
	ReasonNoLicense         Reason = "no_license"
	ReasonNotFound          Reason = "not_found"
	ReasonNameMismatch      Reason = "name_mismatch"
	ReasonBirthYearMismatch Reason = "birth_year_mismatch"
)

// Rejection explains why a row was excluded from the output. Declared and
// Found hold the compared values when the reason is a mismatch.
type Rejection struct {
	Reason   Reason
	Declared string
	Found    string
}

type Looker interface {
	Lookup(ctx context.Context, licenseID string) (*internal.LicenseRecord, error)
}

type Validator struct {
	looker Looker
	log    *slog.Logger
}

func NewValidator(looker Looker, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{looker: looker, log: log}
}

var dobLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Validate checks a row against the registry. A non-nil Rejection means the
// row must be skipped; an error means the registry itself failed.
func (v *Validator) Validate(ctx context.Context, row internal.AthleteRow) (internal.LicenseRecord, *Rejection, error) {
	licenseID := strings.TrimSpace(row.LicenseID)
	if licenseID == "" {
		v.log.Warn("athlete has no license", "bib", row.Bib, "surname", row.LastName, "firstname", row.FirstName)
		return internal.LicenseRecord{}, &Rejection{Reason: ReasonNoLicense}, nil
	}

	found, err := v.looker.Lookup(ctx, licenseID)
	if err != nil {
		return internal.LicenseRecord{}, nil, err
	}
	if found == nil {
		v.log.Warn("athlete not found", "bib", row.Bib, "surname", row.LastName, "firstname", row.FirstName, "license", licenseID)
		return internal.LicenseRecord{}, &Rejection{Reason: ReasonNotFound}, nil
	}

	if row.LastName != found.Surname || row.FirstName != found.Firstname {
		v.log.Warn("wrong athlete", "bib", row.Bib,
			"surname", row.LastName, "firstname", row.FirstName,
			"registry_surname", found.Surname, "registry_firstname", found.Firstname,
			"license", licenseID)
		return internal.LicenseRecord{}, &Rejection{
			Reason:   ReasonNameMismatch,
			Declared: row.LastName + " " + row.FirstName,
			Found:    found.Surname + " " + found.Firstname,
		}, nil
	}

	dob, dobErr := ParseDOB(found.DOB)
	declared, yearOK := ParseBirthYear(row.BirthYear)
	if dobErr != nil || !yearOK || dob.Year() != declared {
		v.log.Warn("wrong birth year", "bib", row.Bib, "surname", row.LastName, "firstname", row.FirstName,
			"license", licenseID, "registry_dob", found.DOB, "declared", row.BirthYear)
		return internal.LicenseRecord{}, &Rejection{
			Reason:   ReasonBirthYearMismatch,
			Declared: strings.TrimSpace(row.BirthYear),
			Found:    found.DOB,
		}, nil
	}

	return *found, nil, nil
}

func ParseDOB(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date of birth: %q", value)
}

// FormatDOB renders a registry date of birth as d.M.yyyy.
func FormatDOB(value string) string {
	t, err := ParseDOB(value)
	if err != nil {
		return ""
	}
	return t.Format("2.1.2006")
}

func ParseBirthYear(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if year, err := strconv.Atoi(value); err == nil {
		return year, true
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}
