package storage

import (
	"path/filepath"
	"testing"

	"lyyti/internal"
)

func TestRunRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	run := internal.RunRow{
		ID: "run-1", Variant: "kll", Source: "kll.xlsx", OutputPath: "out/kll/lyyti.csv",
		Read: 4, Blank: 1, Athletes: 1, Entries: 3, Rejected: 2,
		StartedAt: "2026-05-20T08:00:00Z", FinishedAt: "2026-05-20T08:00:03Z",
	}
	rejections := []internal.RejectionRow{
		{Bib: "3", Surname: "Virtanen", FirstName: "Aino", LicenseID: "1001", Reason: "name_mismatch", Declared: "Virtanen Aino", Found: "Virtanen Ainoliina"},
		{Bib: "4", Surname: "Korhonen", FirstName: "Eino", LicenseID: "1002", Reason: "not_found"},
	}
	if err := db.InsertRun(run, rejections); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != run {
		t.Fatalf("run=%+v", got)
	}

	list, err := db.ListRejections("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len=%d", len(list))
	}
	if list[0].RunID != "run-1" || list[0].Found != "Virtanen Ainoliina" || list[1].Reason != "not_found" {
		t.Fatalf("unexpected rejections: %+v", list)
	}

	missing, err := db.GetRun("nope")
	if err != nil || missing != nil {
		t.Fatalf("missing=%v err=%v", missing, err)
	}
}

func TestMetadata(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	v, err := db.GetMetadata("last_output.hippo")
	if err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("last_output.hippo", "a.csv"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("last_output.hippo", "b.csv"); err != nil {
		t.Fatal(err)
	}
	v, err = db.GetMetadata("last_output.hippo")
	if err != nil || v == nil || *v != "b.csv" {
		t.Fatalf("v=%v err=%v", v, err)
	}
}
