package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"lyyti/internal"
	"lyyti/internal/config"
	"lyyti/internal/registry"
	"lyyti/internal/storage"
)

type stubRegistry map[string]*internal.LicenseRecord

func (s stubRegistry) Lookup(_ context.Context, licenseID string) (*internal.LicenseRecord, error) {
	return s[licenseID], nil
}

func kllRegistry() stubRegistry {
	return stubRegistry{
		"1001": {LicenceID: "1001", Firstname: "Aino", Surname: "Virtanen", DOB: "2009-03-01T00:00:00", Organization: internal.Organization{Name: "Espoon Tapiot", NameShort: "ETa"}},
		"1002": {LicenceID: "1002", Firstname: "Eino", Surname: "Korhonen", DOB: "2011-06-30T00:00:00", Organization: internal.Organization{Name: "Tampereen Pyrintö", NameShort: "TP"}},
		"1003": {LicenceID: "1003", Firstname: "Veera", Surname: "Heikkinen", DOB: "2008-01-12T00:00:00", Organization: internal.Organization{Name: "Lahden Ahkera", NameShort: "LA"}},
	}
}

func quietValidator(looker registry.Looker) *registry.Validator {
	return registry.NewValidator(looker, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func kllRows() []internal.AthleteRow {
	n17 := "N17 lajit joihin osallistuja ilmoittautuu"
	p13 := "P13 lajit joihin osallistuja ilmoittautuu"
	return []internal.AthleteRow{
		{Bib: "1", FirstName: "Aino", LastName: "Virtanen", LicenseID: "1001", BirthYear: "2009", Series: "Tytöt", EventCells: map[string]string{n17: "pituus, kuula"}},
		{Bib: "2", FirstName: "Kalle", LastName: "Nieminen", LicenseID: "4040", BirthYear: "2010", Series: "Pojat", EventCells: map[string]string{p13: "pituus"}},
		{Bib: "3"},
		{Bib: "4", FirstName: "Eino", LastName: "Korhonen", LicenseID: "1002", BirthYear: "2012", Series: "Pojat", EventCells: map[string]string{p13: "kuula"}},
		{Bib: "5", FirstName: "Vera", LastName: "Heikkinen", LicenseID: "1003", BirthYear: "2008", Series: "Tytöt", EventCells: map[string]string{n17: "kiekko"}},
		{Bib: "6", FirstName: "Eino", LastName: "Korhonen", LicenseID: "1002", BirthYear: "2011", Series: "Pojat", EventCells: map[string]string{p13: "korkeus, 60m aj"}},
	}
}

func TestConvertRowsKLL(t *testing.T) {
	Convey("Given a KLL sheet checked against the registry", t, func() {
		b := NewBuilder(2026, "Hippo", "Ei seuraa")
		out, err := ConvertRows(context.Background(), internal.VariantKLL, kllRows(), b, quietValidator(kllRegistry()))
		So(err, ShouldBeNil)

		Convey("Every row is read and only the empty one is blank", func() {
			So(out.Read, ShouldEqual, 6)
			So(out.Blank, ShouldEqual, 1)
		})

		Convey("Rejected rows emit nothing and are listed with their reason", func() {
			So(out.Rejections, ShouldHaveLength, 3)
			So(out.Rejections[0].Bib, ShouldEqual, "2")
			So(out.Rejections[0].Reason, ShouldEqual, string(registry.ReasonNotFound))
			So(out.Rejections[1].Bib, ShouldEqual, "4")
			So(out.Rejections[1].Reason, ShouldEqual, string(registry.ReasonBirthYearMismatch))
			So(out.Rejections[2].Bib, ShouldEqual, "5")
			So(out.Rejections[2].Reason, ShouldEqual, string(registry.ReasonNameMismatch))
		})

		Convey("Accepted athletes keep input order and one run-wide sequence", func() {
			So(out.Athletes, ShouldEqual, 2)
			So(out.Entries, ShouldEqual, 4)
			So(Render(out.Records), ShouldEqual, strings.Join([]string{
				"1;Virtanen;Aino;Espoon Tapiot;ETa;1001;;1.3.2009;N;0",
				"&1;1;N;17;lj;;",
				"&2;1;N;17;sp;;",
				"6;Korhonen;Eino;Tampereen Pyrintö;TP;1002;;30.6.2011;M;0",
				"&3;6;P;13;hj;;",
				"&4;6;P;13;60mh;;",
			}, "\r\n"))
		})
	})

	Convey("KLL without a validator is refused", t, func() {
		_, err := ConvertRows(context.Background(), internal.VariantKLL, kllRows(), NewBuilder(2026, "", ""), nil)
		So(err, ShouldNotBeNil)
	})
}

func TestConvertRowsGenericCountsBlanks(t *testing.T) {
	Convey("Blank rows count but produce no lines", t, func() {
		rows := []internal.AthleteRow{
			{Bib: "1", FirstName: "Matti", LastName: "Meikäläinen", Categories: []string{"Pojat 2012 pituus", ""}},
			{Bib: "2", FirstName: "  "},
			{Bib: "3", FirstName: "Maija", LastName: "Mäki", Categories: []string{"Tytöt 2013 kuula", "Tytöt 2013 pituus"}},
		}
		out, err := ConvertRows(context.Background(), internal.VariantGeneric, rows, NewBuilder(2026, "Hippo", "Ei seuraa"), nil)
		So(err, ShouldBeNil)
		So(out.Read, ShouldEqual, 3)
		So(out.Blank, ShouldEqual, 1)
		So(out.Athletes, ShouldEqual, 2)
		So(lines(out.Records), ShouldResemble, []string{
			"1;Meikäläinen;Matti;Hippo;Ei seuraa;S101;;;M;0",
			"&1;1;P;14;lj;;",
			"3;Mäki;Maija;Hippo;Ei seuraa;S103;;;N;0",
			"&2;3;T;13;sp;;",
			"&3;3;T;13;lj;;",
		})
	})
}

func TestProcessingServiceConvert(t *testing.T) {
	Convey("Given a processing service writing into a temp dir", t, func() {
		tmp := t.TempDir()
		db, err := storage.Open(filepath.Join(tmp, "runs.db"))
		So(err, ShouldBeNil)
		defer db.Close()

		cfg := config.Config{OutputDir: filepath.Join(tmp, "out"), DefaultClub: "Hippo", DefaultClubShort: "Ei seuraa"}
		svc := NewProcessingService(db, cfg)
		fixed := time.Date(2026, 5, 20, 8, 30, 0, 0, time.UTC)
		svc.now = func() time.Time { return fixed }

		Convey("A Hippo workbook becomes a CRLF file in the hippo subdirectory", func() {
			src := filepath.Join(tmp, "hippo.xlsx")
			So(os.WriteFile(src, mkXLSX(hippoFixture()), 0o644), ShouldBeNil)

			res, err := svc.Convert(context.Background(), internal.VariantHippo, src)
			So(err, ShouldBeNil)
			So(res.Read, ShouldEqual, 3)
			So(res.Blank, ShouldEqual, 1)
			So(res.Athletes, ShouldEqual, 2)
			So(res.Entries, ShouldEqual, 3)
			So(res.OutputPath, ShouldEqual, filepath.Join(tmp, "out", "hippo", "lyyti-2026-05-20T08-30-00.000Z.csv"))

			blob, err := os.ReadFile(res.OutputPath)
			So(err, ShouldBeNil)
			So(string(blob), ShouldEqual, strings.Join([]string{
				"1;Koski;Eino;Hippo;Ei seuraa;S101;;;M;0",
				"&1;1;P;9;bt;;",
				"&2;1;P;9;lj;;",
				"3;Lahti;Helmi;Hippo;Ei seuraa;S103;;;N;0",
				"&3;3;T;8;lj;;",
			}, "\r\n"))

			run, err := db.GetRun(res.RunID)
			So(err, ShouldBeNil)
			So(run, ShouldNotBeNil)
			So(run.Variant, ShouldEqual, "hippo")
			So(run.Entries, ShouldEqual, 3)

			last, err := db.GetMetadata("last_output.hippo")
			So(err, ShouldBeNil)
			So(*last, ShouldEqual, res.OutputPath)
		})

		Convey("A KLL run stores its rejections and exports them", func() {
			blob := mkXLSX([][]any{
				{"", kllFirstName, kllLastName, kllBirthYear, kllLicense, kllSeries, KLLColumns[7].Header},
				{1, "Aino", "Virtanen", 2009, 1001, "Tytöt", "pituus"},
				{2, "Kalle", "Nieminen", 2010, 4040, "Pojat", "kuula"},
			})
			src := filepath.Join(tmp, "kll.xlsx")
			So(os.WriteFile(src, blob, 0o644), ShouldBeNil)
			svc.validator = quietValidator(kllRegistry())

			res, err := svc.Convert(context.Background(), internal.VariantKLL, src)
			So(err, ShouldBeNil)
			So(res.Rejected, ShouldEqual, 1)
			So(filepath.Dir(res.OutputPath), ShouldEqual, filepath.Join(tmp, "out", "kll"))

			out := filepath.Join(tmp, "report.xlsx")
			count, err := svc.ExportRejections(res.RunID, out)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)

			f, err := excelize.OpenFile(out)
			So(err, ShouldBeNil)
			defer f.Close()
			rows, err := f.GetRows(f.GetSheetName(0))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[1][0], ShouldEqual, "2")
			So(rows[1][4], ShouldEqual, "not_found")
		})

		Convey("Exporting an unknown run fails", func() {
			_, err := svc.ExportRejections("missing", filepath.Join(tmp, "x.xlsx"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRender(t *testing.T) {
	records := []internal.Record{
		internal.AthleteRecord{Bib: "1", Surname: "S", FirstName: "F", Club: "C", ClubShort: "CS", License: "S101", Gender: "M"},
		internal.EntryRecord{Seq: 1, Bib: "1", Class: "P", Age: 10, Event: "lj"},
	}
	got := Render(records)
	if got != "1;S;F;C;CS;S101;;;M;0\r\n&1;1;P;10;lj;;" {
		t.Fatalf("got %q", got)
	}
	if Render(nil) != "" {
		t.Fatal("empty render not empty")
	}
}
