package internal

import (
	"strconv"
	"strings"
)

const (
	Delimiter   = ";"
	LineBreak   = "\r\n"
	AthleteType = "0"
)

type Variant string

const (
	VariantGeneric Variant = "generic"
	VariantHippo   Variant = "hippo"
	VariantKLL     Variant = "kll"
)

// Subdir is the output subdirectory of a variant below the output root.
func (v Variant) Subdir() string {
	switch v {
	case VariantHippo:
		return "hippo"
	case VariantKLL:
		return "kll"
	default:
		return ""
	}
}

type Gender string

const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "M"
	GenderFemale  Gender = "N"
)

// AthleteRow is one decoded source row. Categories holds the raw category
// strings of the generic and Hippo variants; EventCells holds the KLL event
// columns keyed by header.
type AthleteRow struct {
	Position     int
	Bib          string
	FirstName    string
	LastName     string
	Categories   []string
	School       string
	Municipality string
	LicenseID    string
	BirthYear    string
	AgeSeries    string
	Series       string
	EventCells   map[string]string
}

func (r AthleteRow) Blank() bool {
	return strings.TrimSpace(r.FirstName) == ""
}

type CategoryToken struct {
	Gender Gender
	Class  string
	Age    int
	Event  string
}

type Record interface {
	Line() string
}

type AthleteRecord struct {
	Bib       string
	Surname   string
	FirstName string
	Club      string
	ClubShort string
	License   string
	DOB       string
	Gender    Gender
}

func (a AthleteRecord) Line() string {
	return strings.Join([]string{
		a.Bib, a.Surname, a.FirstName, a.Club, a.ClubShort, a.License, "", a.DOB, string(a.Gender), AthleteType,
	}, Delimiter)
}

type EntryRecord struct {
	Seq   int
	Bib   string
	Class string
	Age   int
	Event string
}

func (e EntryRecord) Line() string {
	return "&" + strings.Join([]string{
		strconv.Itoa(e.Seq), e.Bib, e.Class, strconv.Itoa(e.Age), e.Event, "", "",
	}, Delimiter)
}

type Organization struct {
	Name      string
	NameShort string
}

type LicenseRecord struct {
	LicenceID    string
	Firstname    string
	Surname      string
	DOB          string
	Organization Organization
}

type RejectionRow struct {
	RunID     string
	Bib       string
	Surname   string
	FirstName string
	LicenseID string
	Reason    string
	Declared  string
	Found     string
}

type RunRow struct {
	ID         string
	Variant    string
	Source     string
	OutputPath string
	Read       int
	Blank      int
	Athletes   int
	Entries    int
	Rejected   int
	StartedAt  string
	FinishedAt string
}
