package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/pkg/types/common"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// SearchResult is the CLI projection of one record search.
type SearchResult struct {
	Total int           `json:"total"`
	Rows  []SearchEntry `json:"rows"`
}

// SearchEntry summarises one persisted record.
type SearchEntry struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	LotNumero  int     `json:"lot_numero"`
	Intitule   string  `json:"intitule"`
	Confidence float64 `json:"confidence"`
	Valid      bool    `json:"valid"`
}

// TableHeaders implements the table output contract.
func (r *SearchResult) TableHeaders() []string {
	return []string{"ID", "DOCUMENT", "LOT", "INTITULE", "CONFIDENCE", "VALID"}
}

// TableRows implements the table output contract.
func (r *SearchResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Rows))
	for _, e := range r.Rows {
		rows = append(rows, []string{
			truncate(e.ID, 12),
			truncate(e.DocumentID, 12),
			strconv.Itoa(e.LotNumero),
			truncate(e.Intitule, 50),
			strconv.FormatFloat(e.Confidence, 'f', 1, 64),
			strconv.FormatBool(e.Valid),
		})
	}
	return rows
}

// NewSearchCmd creates the "search" subcommand. It queries the configured
// PostgreSQL instance directly.
func NewSearchCmd() *cobra.Command {
	var (
		keyword   string
		univers   string
		statut    string
		onlyValid bool
		minConf   float64
		page      int
		pageSize  int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search persisted tender records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			conn, err := postgres.NewConnection(ctx, cliCtx.Config.Database, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			repo := repositories.NewTenderRepository(conn.Pool(), logging.Sugar(cliCtx.Logger))
			pagination := common.Pagination{Page: page, PageSize: pageSize}
			pagination.Normalize()

			rows, total, err := repo.Search(ctx, repositories.SearchCriteria{
				Keyword:       keyword,
				Univers:       univers,
				Statut:        statut,
				OnlyValid:     onlyValid,
				MinConfidence: minConf,
				Pagination:    pagination,
			})
			if err != nil {
				return err
			}

			out := &SearchResult{Total: total}
			for _, row := range rows {
				entry := SearchEntry{
					ID:         row.ID,
					DocumentID: row.DocumentID,
					LotNumero:  row.LotNumero,
					Confidence: row.Confidence,
					Valid:      row.IsValid,
				}
				entry.Intitule = row.Fields.Get(tender.FieldIntituleLot).Value
				if entry.Intitule == "" {
					entry.Intitule = row.Fields.Get(tender.FieldIntituleProcedure).Value
				}
				out.Rows = append(out.Rows, entry)
			}
			return PrintResult(cmd, out)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&keyword, "keyword", "k", "", "keyword filter on title and keywords")
	f.StringVar(&univers, "univers", "", "filter by univers")
	f.StringVar(&statut, "statut", "", "filter by statut")
	f.BoolVar(&onlyValid, "only-valid", false, "only records that passed validation")
	f.Float64Var(&minConf, "min-confidence", 0, "minimum confidence score")
	f.IntVar(&page, "page", 1, "result page")
	f.IntVar(&pageSize, "page-size", 20, "results per page")
	return cmd
}

//Personal.AI order the ending
