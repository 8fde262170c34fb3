package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/Tender-Intelligence/internal/extraction/pipeline"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// ExtractResult is the CLI projection of one pipeline run.
type ExtractResult struct {
	File     string          `json:"file"`
	Records  []ExtractRecord `json:"records"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ExtractRecord summarises one produced record.
type ExtractRecord struct {
	LotNumero  int     `json:"lot_numero"`
	Intitule   string  `json:"intitule"`
	Reference  string  `json:"reference"`
	DateLimite string  `json:"date_limite"`
	Confidence float64 `json:"confidence"`
	Valid      bool    `json:"valid"`
}

// TableHeaders implements the table output contract.
func (r *ExtractResult) TableHeaders() []string {
	return []string{"LOT", "INTITULE", "REFERENCE", "DATE LIMITE", "CONFIDENCE", "VALID"}
}

// TableRows implements the table output contract.
func (r *ExtractResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, []string{
			strconv.Itoa(rec.LotNumero),
			truncate(rec.Intitule, 60),
			rec.Reference,
			rec.DateLimite,
			strconv.FormatFloat(rec.Confidence, 'f', 1, 64),
			strconv.FormatBool(rec.Valid),
		})
	}
	return rows
}

// NewExtractCmd creates the "extract" subcommand. It runs the full pipeline
// locally, without any backing service.
func NewExtractCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Extract tender records from document text files",
		Long:  "Runs the extraction pipeline over one or more plain-text procurement\ndocuments and prints the produced records. Needs no server or database.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			pipe := pipeline.New(pipeline.Options{Logger: logging.Sugar(cliCtx.Logger)})
			for _, file := range args {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}

				result, err := pipe.Run(string(data))
				if err != nil {
					return fmt.Errorf("extraction of %s failed: %w", file, err)
				}

				out := buildExtractResult(file, result, full)
				if err := PrintResult(cmd, out); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "include every extracted field (json output only)")
	return cmd
}

func buildExtractResult(file string, result *tender.ExtractionResult, full bool) interface{} {
	if full {
		return result
	}

	out := &ExtractResult{File: file, Warnings: result.Warnings}
	for i, rec := range result.Records {
		r := ExtractRecord{
			Intitule:   rec.Get(tender.FieldIntituleLot).Value,
			Reference:  rec.Get(tender.FieldReferenceProcedure).Value,
			DateLimite: rec.Get(tender.FieldDateLimite).Value,
		}
		if r.Intitule == "" {
			r.Intitule = rec.Get(tender.FieldIntituleProcedure).Value
		}
		if i < len(result.Lots) {
			r.LotNumero = result.Lots[i].Numero
		}
		if i < len(result.Validations) && result.Validations[i] != nil {
			r.Confidence = result.Validations[i].Confidence
			r.Valid = result.Validations[i].IsValid
		}
		out.Records = append(out.Records, r)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

//Personal.AI order the ending
