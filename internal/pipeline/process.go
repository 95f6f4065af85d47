package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"lyyti/internal"
	"lyyti/internal/config"
	"lyyti/internal/registry"
	"lyyti/internal/storage"
)

type RowValidator interface {
	Validate(ctx context.Context, row internal.AthleteRow) (internal.LicenseRecord, *registry.Rejection, error)
}

// Outcome is the in-memory result of converting one row set.
type Outcome struct {
	Records    []internal.Record
	Rejections []internal.RejectionRow
	Read       int
	Blank      int
	Athletes   int
	Entries    int
}

// ConvertRows processes rows strictly in order. Blank rows only count; KLL
// rows pass the validator before any record is built, one row at a time.
func ConvertRows(ctx context.Context, variant internal.Variant, rows []internal.AthleteRow, b *Builder, v RowValidator) (Outcome, error) {
	out := Outcome{Read: len(rows)}
	if variant == internal.VariantKLL && v == nil {
		return out, errors.New("kll conversion needs a license validator")
	}

	for _, row := range rows {
		if row.Blank() {
			out.Blank++
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		var records []internal.Record
		switch variant {
		case internal.VariantGeneric:
			records = b.Generic(row)
		case internal.VariantHippo:
			records = b.Hippo(row)
		case internal.VariantKLL:
			license, rejection, err := v.Validate(ctx, row)
			if err != nil {
				return out, fmt.Errorf("validate bib %s: %w", row.Bib, err)
			}
			if rejection != nil {
				out.Rejections = append(out.Rejections, internal.RejectionRow{
					Bib:       row.Bib,
					Surname:   row.LastName,
					FirstName: row.FirstName,
					LicenseID: row.LicenseID,
					Reason:    string(rejection.Reason),
					Declared:  rejection.Declared,
					Found:     rejection.Found,
				})
				continue
			}
			records = b.KLL(row, license)
		default:
			return out, fmt.Errorf("unsupported variant: %s", variant)
		}

		out.Athletes++
		out.Entries += len(records) - 1
		out.Records = append(out.Records, records...)
	}

	return out, nil
}

type ProcessingService struct {
	db        *storage.DB
	cfg       config.Config
	validator RowValidator
	now       func() time.Time
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, now: time.Now}
}

type Result struct {
	RunID      string
	Read       int
	Blank      int
	Athletes   int
	Entries    int
	Rejected   int
	OutputPath string
}

func (s *ProcessingService) Convert(ctx context.Context, variant internal.Variant, sourcePath string) (Result, error) {
	started := s.now()

	rows, err := s.readRows(variant, sourcePath)
	if err != nil {
		return Result{}, err
	}

	validator := s.validator
	if variant == internal.VariantKLL && validator == nil {
		validator = registry.NewValidator(registry.NewClient(s.cfg), slog.Default())
	}

	builder := NewBuilder(started.Year(), s.cfg.DefaultClub, s.cfg.DefaultClubShort)
	outcome, err := ConvertRows(ctx, variant, rows, builder, validator)
	if err != nil {
		return Result{}, err
	}

	filename := "lyyti-" + started.UTC().Format("2006-01-02T15-04-05.000Z") + ".csv"
	outputPath := filepath.Join(s.cfg.OutputDir, variant.Subdir(), filename)
	if err := WriteOutput(outcome.Records, outputPath); err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:      uuid.NewString(),
		Read:       outcome.Read,
		Blank:      outcome.Blank,
		Athletes:   outcome.Athletes,
		Entries:    outcome.Entries,
		Rejected:   len(outcome.Rejections),
		OutputPath: outputPath,
	}

	if s.db != nil {
		run := internal.RunRow{
			ID:         res.RunID,
			Variant:    string(variant),
			Source:     sourcePath,
			OutputPath: outputPath,
			Read:       res.Read,
			Blank:      res.Blank,
			Athletes:   res.Athletes,
			Entries:    res.Entries,
			Rejected:   res.Rejected,
			StartedAt:  started.UTC().Format(time.RFC3339),
			FinishedAt: s.now().UTC().Format(time.RFC3339),
		}
		if err := s.db.InsertRun(run, outcome.Rejections); err != nil {
			return res, fmt.Errorf("record run: %w", err)
		}
		_ = s.db.SetMetadata("last_output."+string(variant), outputPath)
	}

	slog.Info("conversion finished", "run_id", res.RunID, "variant", variant, "read", res.Read,
		"blank", res.Blank, "athletes", res.Athletes, "entries", res.Entries, "rejected", res.Rejected)
	return res, nil
}

// ExportRejections writes the rejection report of a stored run.
func (s *ProcessingService) ExportRejections(runID, outputPath string) (int, error) {
	if s.db == nil {
		return 0, errors.New("no run database")
	}
	run, err := s.db.GetRun(runID)
	if err != nil {
		return 0, err
	}
	if run == nil {
		return 0, fmt.Errorf("run not found: %s", runID)
	}
	rows, err := s.db.ListRejections(runID)
	if err != nil {
		return 0, err
	}
	if err := ExportRejectionsToXLSX(rows, outputPath); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *ProcessingService) readRows(variant internal.Variant, sourcePath string) ([]internal.AthleteRow, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch variant {
	case internal.VariantGeneric:
		return ReadReportRows(f)
	case internal.VariantHippo, internal.VariantKLL:
		sheet, err := ReadSheet(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", sourcePath, err)
		}
		if variant == internal.VariantHippo {
			return HippoRows(sheet)
		}
		return KLLRows(sheet)
	default:
		return nil, fmt.Errorf("unsupported variant: %s", variant)
	}
}
