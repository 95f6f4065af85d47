package pipeline

import (
	"strconv"
	"strings"

	"lyyti/internal"
	"lyyti/internal/registry"
)

// Sequence numbers entry lines within one run, starting at 1.
type Sequence struct {
	n int
}

func (s *Sequence) Next() int {
	s.n++
	return s.n
}

func (s *Sequence) Current() int {
	return s.n
}

// Builder turns rows into output records. One Builder serves exactly one run;
// its Sequence is never shared.
type Builder struct {
	year      int
	club      string
	clubShort string
	seq       Sequence
}

func NewBuilder(currentYear int, club, clubShort string) *Builder {
	return &Builder{year: currentYear, club: club, clubShort: clubShort}
}

func (b *Builder) Issued() int {
	return b.seq.Current()
}

func (b *Builder) Entries(bib string, tokens []internal.CategoryToken) []internal.Record {
	out := make([]internal.Record, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, internal.EntryRecord{
			Seq:   b.seq.Next(),
			Bib:   bib,
			Class: tok.Class,
			Age:   tok.Age,
			Event: NormalizeEvent(tok.Event),
		})
	}
	return out
}

// Generic builds the records of a survey report row. The athlete's gender
// follows the first category only.
func (b *Builder) Generic(row internal.AthleteRow) []internal.Record {
	gender := internal.GenderUnknown
	if len(row.Categories) > 0 {
		gender = GenderOf(row.Categories[0])
	}
	return b.fromCategories(row, gender)
}

func (b *Builder) Hippo(row internal.AthleteRow) []internal.Record {
	return b.fromCategories(row, GenderOf(strings.Join(row.Categories, ",")))
}

func (b *Builder) fromCategories(row internal.AthleteRow, gender internal.Gender) []internal.Record {
	bib := strings.TrimSpace(row.Bib)
	athlete := internal.AthleteRecord{
		Bib:       bib,
		Surname:   row.LastName,
		FirstName: row.FirstName,
		Club:      b.club,
		ClubShort: b.clubShort,
		License:   SyntheticLicense(row),
		Gender:    gender,
	}

	tokens := make([]internal.CategoryToken, 0, len(row.Categories))
	for _, cat := range row.Categories {
		if tok, ok := ParseCategory(strings.Trim(cat, `"`), b.year); ok {
			tokens = append(tokens, tok)
		}
	}

	return append([]internal.Record{athlete}, b.Entries(bib, tokens)...)
}

// KLL builds the records of a school sheet row that already passed registry
// validation; club and date of birth come from the registry.
func (b *Builder) KLL(row internal.AthleteRow, license internal.LicenseRecord) []internal.Record {
	bib := strings.TrimSpace(row.Bib)
	athlete := internal.AthleteRecord{
		Bib:       bib,
		Surname:   row.LastName,
		FirstName: row.FirstName,
		Club:      license.Organization.Name,
		ClubShort: license.Organization.NameShort,
		License:   strings.TrimSpace(row.LicenseID),
		DOB:       registry.FormatDOB(license.DOB),
		Gender:    GenderOf(row.Series),
	}

	var tokens []internal.CategoryToken
	for _, col := range KLLColumns {
		tokens = append(tokens, ParseEventList(row.EventCells[col.Header], col)...)
	}

	return append([]internal.Record{athlete}, b.Entries(bib, tokens)...)
}

// SyntheticLicense is "S" + (100 + n) where n is the numeric bib, or the
// row position when the bib is not a number.
func SyntheticLicense(row internal.AthleteRow) string {
	n, err := strconv.Atoi(strings.TrimSpace(row.Bib))
	if err != nil {
		n = row.Position
	}
	return "S" + strconv.Itoa(100+n)
}
