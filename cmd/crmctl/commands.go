package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xavierca1/ligue-crm/internal/app"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

var (
	search   string
	sortKey  string
	page     int
	pageSize int
	leadID   int64
	stageID  int64
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Mostra o quadro do funil por etapa",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClinic(); err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			out, err := a.LoadBoard.Execute(cmd.Context(), usecase.LoadBoardInput{
				ClinicID: clinicID,
				FunnelID: funnelID,
				Search:   search,
				Sort:     entity.ParseLeadSort(sortKey),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d leads)\n", out.Funnel.Name, out.TotalLeads)
			if out.EmptyState != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out.EmptyState)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, col := range out.Columns {
				fmt.Fprintf(tw, "[%s]\t%d\n", col.Stage.Name, col.Count)
				for _, l := range col.Leads {
					fmt.Fprintf(tw, "\t%d\t%s\n", l.ID, leadName(l))
				}
			}
			return tw.Flush()
		})
	},
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Lista os leads do funil paginados",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClinic(); err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			out, err := a.ListLeads.Execute(cmd.Context(), usecase.ListLeadsInput{
				ClinicID: clinicID,
				FunnelID: funnelID,
				Page:     page,
				PageSize: pageSize,
				Search:   search,
				Sort:     entity.ParseLeadSort(sortKey),
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNOME\tETAPA")
			for _, l := range out.Leads {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", l.ID, leadName(l.Lead), l.StageName)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "página %d de %d (%d leads)\n", out.Page, out.TotalPages, out.TotalCount)
			return nil
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move um lead para outra etapa",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireClinic(); err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			out, err := a.MoveLead.Execute(cmd.Context(), usecase.MoveLeadInput{
				ClinicID:      clinicID,
				FunnelID:      funnelID,
				DragData:      strconv.FormatInt(leadID, 10),
				TargetStageID: stageID,
			})
			if err != nil {
				return err
			}
			switch out.Outcome {
			case usecase.OutcomeMoved:
				fmt.Fprintln(cmd.OutOrStdout(), out.Notice)
			case usecase.OutcomeNoOp:
				fmt.Fprintln(cmd.OutOrStdout(), "nada a fazer: lead não está no quadro ou já está na etapa")
			default:
				fmt.Fprintln(cmd.ErrOrStderr(), "lead inválido")
			}
			return nil
		})
	},
}

var dispatchDueCmd = &cobra.Command{
	Use:   "dispatch-due",
	Short: "Envia uma vez as mensagens agendadas vencidas",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			sent, err := a.Dispatch.SendDue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d mensagens enviadas\n", sent)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{boardCmd, leadsCmd, moveCmd} {
		c.Flags().Int64Var(&funnelID, "funnel", 0, "id do funil")
		_ = c.MarkFlagRequired("funnel")
	}
	for _, c := range []*cobra.Command{boardCmd, leadsCmd} {
		c.Flags().StringVar(&search, "search", "", "busca por nome, telefone ou origem")
		c.Flags().StringVar(&sortKey, "sort", string(entity.SortRecent), "recent, oldest, name_asc ou name_desc")
	}
	leadsCmd.Flags().IntVar(&page, "page", 1, "página (começa em 1)")
	leadsCmd.Flags().IntVar(&pageSize, "page-size", usecase.DefaultPageSize, "leads por página")
	moveCmd.Flags().Int64Var(&leadID, "lead", 0, "id do lead")
	moveCmd.Flags().Int64Var(&stageID, "stage", 0, "id da etapa de destino")
	_ = moveCmd.MarkFlagRequired("lead")
	_ = moveCmd.MarkFlagRequired("stage")
}

func leadName(l entity.Lead) string {
	if l.Name == nil || *l.Name == "" {
		return "(sem nome)"
	}
	return *l.Name
}
