package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"lyyti/internal"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrNoSheet       = errors.New("workbook has no sheets")
)

const (
	colBib = ""

	hippoFirstName = "Lapsen etunimi"
	hippoLastName  = "Lapsen sukunimi"
	hippoCategory  = "Sarja ja lajitValitse sarja/sarjat, joihin lapsi osallistuu ja ilmoita jokainen lapsi erikseen. Osallistua voi joko yhteen tai kahteen lajiin. "

	kllFirstName    = "Etunimi"
	kllLastName     = "Sukunimi"
	kllBirthYear    = "Osallistujan syntymävuosi (kirjoita muodossa esim. 2009)"
	kllMunicipality = "Osallistujan koulunkäyntikunta"
	kllSchool       = "Koulu jota osallistuja edustaa"
	kllLicense      = "Sportti-ID: "
	kllAgeSeries    = "Osallistujan ikäsarja"
	kllSeries       = "Osallistujan sarja"
)

// ReadReportRows decodes the generic comma-separated survey report:
// number, first name, last name, email, phone, category 1, category 2.
// A byte order mark selects UTF-16 input; plain UTF-8 is the default.
func ReadReportRows(r io.Reader) ([]internal.AthleteRow, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var out []internal.AthleteRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read report line %d: %w", len(out)+1, err)
		}
		out = append(out, internal.AthleteRow{
			Position:   len(out),
			Bib:        field(record, 0),
			FirstName:  field(record, 1),
			LastName:   field(record, 2),
			Categories: []string{field(record, 5), field(record, 6)},
		})
	}
	return out, nil
}

// Sheet is the first worksheet of a workbook with its header row indexed.
// Fully empty rows are dropped.
type Sheet struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

func ReadSheet(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Sheet{index: map[string]int{}}, nil
	}

	s := &Sheet{Header: rows[0], index: map[string]int{}}
	for i, h := range rows[0] {
		if _, ok := s.index[h]; !ok {
			s.index[h] = i
		}
	}
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func (s *Sheet) Has(col string) bool {
	_, ok := s.index[col]
	return ok
}

func (s *Sheet) Cell(row []string, col string) string {
	i, ok := s.index[col]
	if !ok {
		return ""
	}
	return field(row, i)
}

func (s *Sheet) require(cols ...string) error {
	for _, col := range cols {
		if !s.Has(col) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}
	return nil
}

func HippoRows(s *Sheet) ([]internal.AthleteRow, error) {
	if err := s.require(colBib, hippoFirstName, hippoLastName, hippoCategory); err != nil {
		return nil, err
	}
	out := make([]internal.AthleteRow, 0, len(s.Rows))
	for i, row := range s.Rows {
		out = append(out, internal.AthleteRow{
			Position:   i,
			Bib:        s.Cell(row, colBib),
			FirstName:  s.Cell(row, hippoFirstName),
			LastName:   s.Cell(row, hippoLastName),
			Categories: nonEmpty(strings.Split(s.Cell(row, hippoCategory), ",")...),
		})
	}
	return out, nil
}

func KLLRows(s *Sheet) ([]internal.AthleteRow, error) {
	if err := s.require(colBib, kllFirstName, kllLastName, kllBirthYear, kllLicense, kllSeries); err != nil {
		return nil, err
	}
	out := make([]internal.AthleteRow, 0, len(s.Rows))
	for i, row := range s.Rows {
		events := map[string]string{}
		for _, col := range KLLColumns {
			if v := s.Cell(row, col.Header); v != "" {
				events[col.Header] = v
			}
		}
		out = append(out, internal.AthleteRow{
			Position:     i,
			Bib:          s.Cell(row, colBib),
			FirstName:    s.Cell(row, kllFirstName),
			LastName:     s.Cell(row, kllLastName),
			BirthYear:    s.Cell(row, kllBirthYear),
			Municipality: s.Cell(row, kllMunicipality),
			School:       s.Cell(row, kllSchool),
			LicenseID:    s.Cell(row, kllLicense),
			AgeSeries:    s.Cell(row, kllAgeSeries),
			Series:       s.Cell(row, kllSeries),
			EventCells:   events,
		})
	}
	return out, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
