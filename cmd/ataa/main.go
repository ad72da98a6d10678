package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ataa/internal/config"
	"ataa/internal/db"
	"ataa/internal/domain"
	"ataa/internal/engine"
	"ataa/internal/migrate"
	"ataa/internal/server"
	"ataa/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "ataa",
	Short: "Ataa CLI",
	Long: `Ataa is the operations toolkit for a charity organization.
It scores employees against tasks (readiness/availability/growth), assigns
work automatically, watches for burnout, predicts influencer campaign
performance, drafts decisions for managers to accept or reject, enforces
mandatory workflow steps per project, and keeps a library of best practices
with success and failure post-mortems.

State lives in the .ataa workspace: ataa.db for records and ataa.yml for
scoring weights and workflow templates. Every mutation is appended to the
event log; view it with 'ataa log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("ATAA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(orgCmd())
	rootCmd.AddCommand(employeeCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(burnoutCmd())
	rootCmd.AddCommand(influencerCmd())
	rootCmd.AddCommand(decisionCmd())
	rootCmd.AddCommand(workflowCmd())
	rootCmd.AddCommand(practiceCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- org ---

func orgCmd() *cobra.Command {
	org := &cobra.Command{Use: "org", Short: "Manage the organization workspace"}
	org.AddCommand(orgInitCmd())
	org.AddCommand(orgShowCmd())
	return org
}

func orgInitCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize workspace config and database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config %s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(id)), 0o644); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			fmt.Printf("initialized workspace for %s at %s\n", id, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "organization id")
	return cmd
}

func orgShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
}

// --- employees ---

func employeeCmd() *cobra.Command {
	emp := &cobra.Command{Use: "employee", Short: "Manage employee profiles"}
	emp.AddCommand(employeeAddCmd())
	emp.AddCommand(employeeListCmd())
	emp.AddCommand(employeeShowCmd())
	return emp
}

func employeeAddCmd() *cobra.Command {
	var file string
	var id, name, position string
	var workload, availability, performance float64
	var preferred []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employee profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile domain.EmployeeProfile
			if file != "" {
				if err := readJSONFile(file, &profile); err != nil {
					return err
				}
			} else {
				profile = domain.EmployeeProfile{
					ID:                 id,
					Name:               name,
					Position:           position,
					CurrentWorkload:    workload,
					Availability:       availability,
					PerformanceScore:   performance,
					PreferredTaskTypes: preferred,
				}
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				created, err := svc.CreateEmployee(ctx, profile, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the full profile")
	cmd.Flags().StringVar(&id, "id", "", "employee id")
	cmd.Flags().StringVar(&name, "name", "", "employee name")
	cmd.Flags().StringVar(&position, "position", "", "position title")
	cmd.Flags().Float64Var(&workload, "workload", 0, "current workload percent")
	cmd.Flags().Float64Var(&availability, "availability", 100, "availability percent")
	cmd.Flags().Float64Var(&performance, "performance", 50, "performance score")
	cmd.Flags().StringSliceVar(&preferred, "preferred", nil, "preferred task types")
	return cmd
}

func employeeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				items, err := svc.ListEmployees(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Workload", "Availability", "Performance", "Burnout"})
				for _, e := range items {
					tw.AppendRow(table.Row{e.ID, e.Name, e.CurrentWorkload, e.Availability, e.PerformanceScore, e.BurnoutScore})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func employeeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				e, err := svc.GetEmployee(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(e)
			})
		},
	}
}

// --- tasks ---

func taskCmd() *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Manage and distribute tasks"}
	task.AddCommand(taskAddCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskScoreCmd())
	task.AddCommand(taskAssignCmd())
	task.AddCommand(taskDistributeCmd())
	return task
}

func taskAddCmd() *cobra.Command {
	var file string
	var id, title, priority, difficulty, deadline string
	var hours float64
	var skills, tags []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to the backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			var t domain.TaskToDistribute
			if file != "" {
				if err := readJSONFile(file, &t); err != nil {
					return err
				}
			} else {
				t = domain.TaskToDistribute{
					ID:             id,
					Title:          title,
					Priority:       priority,
					Difficulty:     difficulty,
					EstimatedHours: hours,
					RequiredSkills: skills,
					Tags:           tags,
				}
				if deadline != "" {
					d, err := time.Parse(time.RFC3339, deadline)
					if err != nil {
						return fmt.Errorf("invalid --deadline: %w", err)
					}
					t.Deadline = d
				}
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				created, err := svc.CreateTask(ctx, t, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the full task")
	cmd.Flags().StringVar(&id, "id", "", "task id")
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&priority, "priority", "medium", "low|medium|high|urgent")
	cmd.Flags().StringVar(&difficulty, "difficulty", "medium", "easy|medium|hard|expert")
	cmd.Flags().Float64Var(&hours, "hours", 0, "estimated hours")
	cmd.Flags().StringSliceVar(&skills, "skill", nil, "required skill (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC3339)")
	return cmd
}

func taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				items, err := svc.ListTasks(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Priority", "Hours", "Assignee", "Deadline"})
				for _, t := range items {
					assignee := ""
					if t.AssigneeID != nil {
						assignee = *t.AssigneeID
					}
					deadline := ""
					if !t.Deadline.IsZero() {
						deadline = t.Deadline.Format("2006-01-02")
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Priority, t.EstimatedHours, assignee, deadline})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func taskScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <task-id>",
		Short: "Score every employee against a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				scores, err := svc.ScoreTask(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(scores)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Employee", "Readiness", "Availability", "Growth", "Overall", "Color"})
				for _, s := range scores {
					tw.AppendRow(table.Row{s.EmployeeName, s.Readiness, s.Availability, s.Growth, s.Overall, s.Color})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func taskAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <task-id>",
		Short: "Assign a task to the best-scoring employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				result, err := svc.DistributeTask(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(result)
			})
		},
	}
}

func taskDistributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distribute",
		Short: "Distribute every unassigned task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				results, err := svc.DistributeBacklog(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(results)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Task", "Employee", "Score", "Probability"})
				for _, r := range results {
					tw.AppendRow(table.Row{r.TaskTitle, r.SelectedEmployee.Name, r.Score, r.SuccessProbability})
				}
				tw.Render()
				return nil
			})
		},
	}
}

// --- burnout ---

func burnoutCmd() *cobra.Command {
	b := &cobra.Command{Use: "burnout", Short: "Burnout lab"}
	b.AddCommand(burnoutAnalyzeCmd())
	b.AddCommand(burnoutForecastCmd())
	b.AddCommand(burnoutHistoryCmd())
	return b
}

func burnoutAnalyzeCmd() *cobra.Command {
	var file string
	var work domain.WorkData
	cmd := &cobra.Command{
		Use:   "analyze <employee-id>",
		Short: "Analyze a week of work data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				if err := readJSONFile(file, &work); err != nil {
					return err
				}
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				record, err := svc.AnalyzeBurnout(ctx, args[0], work, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(record)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the work data")
	cmd.Flags().Float64Var(&work.WeeklyHours, "weekly-hours", 40, "hours worked this week")
	cmd.Flags().Float64Var(&work.TasksCompleted, "completed", 0, "tasks completed")
	cmd.Flags().Float64Var(&work.TasksOverdue, "overdue", 0, "tasks overdue")
	cmd.Flags().Float64Var(&work.ErrorRate, "error-rate", 0, "error rate percent")
	cmd.Flags().Float64Var(&work.FocusScore, "focus", 100, "focus score")
	cmd.Flags().Float64Var(&work.RestDays, "rest-days", 2, "rest days")
	cmd.Flags().Float64Var(&work.ConsecutiveWorkDays, "consecutive", 5, "consecutive work days")
	cmd.Flags().Float64Var(&work.AvgHoursPerDay, "avg-hours", 8, "average hours per day")
	cmd.Flags().Float64Var(&work.ProductivityChange, "productivity-change", 0, "productivity change percent")
	cmd.Flags().Float64Var(&work.EngagementScore, "engagement", 100, "engagement score")
	return cmd
}

func burnoutForecastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forecast <employee-id>",
		Short: "Forecast burnout from the snapshot trend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				prediction, err := svc.ForecastBurnout(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(prediction)
			})
		},
	}
}

func burnoutHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <employee-id>",
		Short: "Show the burnout snapshot history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				points, err := svc.BurnoutHistory(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return printJSONOrTable(points)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "n", 30, "number of snapshots")
	return cmd
}

// --- influencers ---

func influencerCmd() *cobra.Command {
	inf := &cobra.Command{Use: "influencer", Short: "Influencer campaign predictions"}
	inf.AddCommand(influencerSaveCmd())
	inf.AddCommand(influencerListCmd())
	inf.AddCommand(influencerPredictCmd())
	inf.AddCommand(influencerCompareCmd())
	return inf
}

func influencerSaveCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update an influencer from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			var inf domain.InfluencerData
			if err := readJSONFile(file, &inf); err != nil {
				return err
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				saved, err := svc.SaveInfluencer(ctx, inf, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(saved)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the influencer record")
	return cmd
}

func influencerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List influencers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				items, err := svc.ListInfluencers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Platform", "Followers", "Engagement", "Reliability"})
				for _, i := range items {
					tw.AppendRow(table.Row{i.ID, i.Name, i.Platform, i.Followers, i.Engagement.EngagementRate, i.Reliability})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func influencerPredictCmd() *cobra.Command {
	var budget float64
	var campaignType string
	var audience []string
	cmd := &cobra.Command{
		Use:   "predict <influencer-id>",
		Short: "Predict campaign performance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				result, err := svc.PredictInfluencer(ctx, args[0], budget, campaignType, audience)
				if err != nil {
					return err
				}
				return printJSONOrTable(result)
			})
		},
	}
	cmd.Flags().Float64Var(&budget, "budget", 0, "campaign budget")
	cmd.Flags().StringVar(&campaignType, "type", "sponsored-post", "campaign type")
	cmd.Flags().StringSliceVar(&audience, "audience", nil, "target audience interest (repeatable)")
	return cmd
}

func influencerCompareCmd() *cobra.Command {
	var ids []string
	var budget float64
	var campaignType string
	var audience []string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare influencers for a campaign, best first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				results, err := svc.CompareInfluencers(ctx, ids, budget, campaignType, audience)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(results)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Name", "Score", "ROI", "Confidence", "Risk", "Recommendation"})
				for _, r := range results {
					tw.AppendRow(table.Row{r.InfluencerName, r.Score, r.PredictedROI, r.Confidence, r.RiskLevel, r.Recommendation})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "influencer id (repeatable; empty compares all)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "campaign budget")
	cmd.Flags().StringVar(&campaignType, "type", "sponsored-post", "campaign type")
	cmd.Flags().StringSliceVar(&audience, "audience", nil, "target audience interest (repeatable)")
	return cmd
}

// --- decisions ---

func decisionCmd() *cobra.Command {
	dec := &cobra.Command{Use: "decision", Short: "Auto-decision engine"}
	dec.AddCommand(decisionRunCmd())
	dec.AddCommand(decisionListCmd())
	dec.AddCommand(decisionShowCmd())
	dec.AddCommand(decisionAcceptCmd())
	dec.AddCommand(decisionRejectCmd())
	dec.AddCommand(decisionOutcomeCmd())
	dec.AddCommand(decisionExpireCmd())
	return dec
}

func decisionRunCmd() *cobra.Command {
	var file, trigger string
	var objectives []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the decision engine on a trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			var dctx domain.DecisionContext
			if file != "" {
				if err := readJSONFile(file, &dctx); err != nil {
					return err
				}
			} else {
				dctx = domain.DecisionContext{TriggeredBy: trigger, Objectives: objectives}
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				decision, err := svc.RunDecision(ctx, dctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(decision)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the full decision context")
	cmd.Flags().StringVar(&trigger, "trigger", "", "trigger description")
	cmd.Flags().StringSliceVar(&objectives, "objective", nil, "objective (repeatable)")
	return cmd
}

func decisionListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				items, err := svc.ListDecisions(ctx, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Title", "Urgency", "Status", "Expires"})
				for _, d := range items {
					tw.AppendRow(table.Row{d.ID, d.Type, d.Title, d.Urgency, d.Status, d.ExpiresAt.Format("2006-01-02")})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func decisionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				d, err := svc.GetDecision(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
}

func decisionAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept a pending decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				d, err := svc.AcceptDecision(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
}

func decisionRejectCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				d, err := svc.RejectDecision(ctx, args[0], viper.GetString("actor-id"), reason)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason")
	return cmd
}

func decisionOutcomeCmd() *cobra.Command {
	var outcome, notes string
	cmd := &cobra.Command{
		Use:   "outcome <id>",
		Short: "Record what actually happened",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outcome == "" {
				return fmt.Errorf("--outcome required")
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				d, err := svc.RecordDecisionOutcome(ctx, args[0], outcome, notes, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "success|partial|failure")
	cmd.Flags().StringVar(&notes, "notes", "", "outcome notes")
	return cmd
}

func decisionExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Expire pending decisions past their deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				n, err := svc.ExpireDecisions(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				fmt.Printf("expired %d decisions\n", n)
				return nil
			})
		},
	}
}

// --- workflow ---

func workflowCmd() *cobra.Command {
	wf := &cobra.Command{Use: "workflow", Short: "Mandatory project workflows"}
	wf.AddCommand(workflowInitCmd())
	wf.AddCommand(workflowStepsCmd())
	wf.AddCommand(workflowStartCmd())
	wf.AddCommand(workflowCompleteCmd())
	wf.AddCommand(workflowAttachCmd())
	wf.AddCommand(workflowProgressCmd())
	return wf
}

func workflowInitCmd() *cobra.Command {
	var template string
	cmd := &cobra.Command{
		Use:   "init <project-id>",
		Short: "Instantiate workflow steps from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if template == "" {
				return fmt.Errorf("--template required")
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				steps, err := svc.InstantiateWorkflow(ctx, args[0], template, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(steps)
			})
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "workflow template id")
	return cmd
}

func workflowStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps <project-id>",
		Short: "List a project's workflow steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				steps, err := svc.Repo.ListProjectSteps(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(steps)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"#", "ID", "Title", "Status", "Assigned", "Files"})
				for _, s := range steps {
					tw.AppendRow(table.Row{s.StepNumber, s.ID, s.Title, s.Status, s.AssignedTo, len(s.Files)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func workflowStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <step-id>",
		Short: "Start a workflow step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				step, err := svc.StartStep(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(step)
			})
		},
	}
}

func workflowCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <step-id>",
		Short: "Complete a workflow step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				step, err := svc.CompleteStep(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(step)
			})
		},
	}
}

func workflowAttachCmd() *cobra.Command {
	var name, fileType, url string
	var size int64
	var required bool
	cmd := &cobra.Command{
		Use:   "attach <step-id>",
		Short: "Attach a file record to a step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				step, err := svc.AttachStepFile(ctx, args[0], name, fileType, size, url, viper.GetString("actor-id"), required)
				if err != nil {
					return err
				}
				return printJSONOrTable(step)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "file name")
	cmd.Flags().StringVar(&fileType, "type", "", "file type")
	cmd.Flags().Int64Var(&size, "size", 0, "file size in bytes")
	cmd.Flags().StringVar(&url, "url", "", "file URL")
	cmd.Flags().BoolVar(&required, "required", false, "counts toward the required-files gate")
	return cmd
}

func workflowProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <project-id>",
		Short: "Show workflow progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				progress, err := svc.WorkflowProgress(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(progress)
			})
		},
	}
}

// --- practices and cases ---

func practiceCmd() *cobra.Command {
	p := &cobra.Command{Use: "practice", Short: "Best-practices library"}
	p.AddCommand(practiceAddCmd())
	p.AddCommand(practiceSearchCmd())
	p.AddCommand(practiceReviewCmd())
	p.AddCommand(practiceUseCmd())
	return p
}

func practiceAddCmd() *cobra.Command {
	var title, description, category, authorID, authorName string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a best practice",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				practice, err := svc.CreatePractice(ctx, title, description, category,
					domain.Author{ID: authorID, Name: authorName}, nil, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(practice)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "practice title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&authorID, "author-id", "", "author id")
	cmd.Flags().StringVar(&authorName, "author", "", "author name")
	return cmd
}

func practiceSearchCmd() *cobra.Command {
	var query, category string
	var minRating float64
	var approvedOnly, featuredOnly bool
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the practice library",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := engine.SearchFilters{Category: category}
			if cmd.Flags().Changed("min-rating") {
				filters.MinRating = &minRating
			}
			if approvedOnly {
				t := true
				filters.Approved = &t
			}
			if featuredOnly {
				t := true
				filters.Featured = &t
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				items, err := svc.SearchPractices(ctx, query, filters)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Category", "Rating", "Used", "Approved"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Title, p.Category, p.Rating, p.UsageCount, p.Approved})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "free-text query")
	cmd.Flags().StringVar(&category, "category", "", "category filter")
	cmd.Flags().Float64Var(&minRating, "min-rating", 0, "minimum rating")
	cmd.Flags().BoolVar(&approvedOnly, "approved", false, "approved practices only")
	cmd.Flags().BoolVar(&featuredOnly, "featured", false, "featured practices only")
	return cmd
}

func practiceReviewCmd() *cobra.Command {
	var userID, userName, comment string
	var rating float64
	cmd := &cobra.Command{
		Use:   "review <practice-id>",
		Short: "Add a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				userID = viper.GetString("actor-id")
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				practice, err := svc.AddPracticeReview(ctx, args[0], userID, userName, rating, comment, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(practice)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "reviewer id (defaults to actor)")
	cmd.Flags().StringVar(&userName, "user-name", "", "reviewer name")
	cmd.Flags().Float64Var(&rating, "rating", 0, "rating 1-5")
	cmd.Flags().StringVar(&comment, "comment", "", "review comment")
	return cmd
}

func practiceUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <practice-id>",
		Short: "Record one use of a practice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				return svc.UsePractice(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func caseCmd() *cobra.Command {
	c := &cobra.Command{Use: "case", Short: "Success and failure case studies"}
	c.AddCommand(caseRecordSuccessCmd())
	c.AddCommand(caseRecordFailCmd())
	c.AddCommand(caseAnalyzeCmd())
	return c
}

func caseRecordSuccessCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "success",
		Short: "Record a success case from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			var c domain.SuccessCase
			if err := readJSONFile(file, &c); err != nil {
				return err
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				recorded, err := svc.RecordSuccessCase(ctx, c, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(recorded)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the case")
	return cmd
}

func caseRecordFailCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "fail",
		Short: "Record a failure case from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			var c domain.FailCase
			if err := readJSONFile(file, &c); err != nil {
				return err
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				recorded, err := svc.RecordFailCase(ctx, c, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(recorded)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the case")
	return cmd
}

func caseAnalyzeCmd() *cobra.Command {
	var failures bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze recurring patterns across recorded cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				var (
					analysis domain.CaseAnalysis
					err      error
				)
				if failures {
					analysis, err = svc.AnalyzeFailures(ctx)
				} else {
					analysis, err = svc.AnalyzeSuccesses(ctx)
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(analysis)
			})
		},
	}
	cmd.Flags().BoolVar(&failures, "failures", false, "analyze failure cases instead of successes")
	return cmd
}

// --- log and serve ---

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Event log"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				events, err := svc.Log(ctx, entityKind, entityID, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowLegacy bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = config.Default("ataa")
			}
			svc := service.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:              os.Getenv("ATAA_JWT_SECRET"),
				AllowLegacyActorHeader: allowLegacy,
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("ATAA_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Service: svc, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Ataa API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&allowLegacy, "allow-legacy-actor", false, "accept X-Actor-Id without credentials (dev only)")
	return cmd
}

// --- helpers ---

func withService(ctx context.Context, fn func(context.Context, *service.Service) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = config.Default("ataa")
	}
	return fn(ctx, service.New(conn, cfg))
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
