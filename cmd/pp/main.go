package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"condopapers/internal/app"
	"condopapers/internal/config"
	"condopapers/internal/domain"
	"condopapers/internal/engine"
	"condopapers/internal/gate"
	"condopapers/internal/metrics"
	"condopapers/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "pp",
	Short: "Condominium paperwork CLI",
	Long: `pp shows and updates the administrative records of a condominium.
- Inspections: certificates and reports with an expiry date, classified valid, warning or critical.
- Contracts: maintenance contracts and their suppliers, classified the same way by end date.
- Orders: service orders that move open -> in_progress -> completed.
- Works: renovation requests; approval requires every required document to be uploaded.
- Checklists: porter routines; completion requires every required task to be done.
- Rounds: QR control points scanned during security rounds.
Data lives in memory and is loaded from the seed file on every run, so changes last for one command.
Use 'pp serve' to keep a store alive behind the HTTP API.`,
	SilenceUsage: true,
}

// declinedError is returned when a gate refuses an approval or completion.
type declinedError struct {
	entity string
	res    gate.Result
}

func (d declinedError) Error() string {
	return fmt.Sprintf("%s declined: %s (missing: %s)", d.entity, d.res.Reason, strings.Join(d.res.Missing, ", "))
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONDOPAPERS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().String("seed", "", "seed data file (defaults to the bundled data)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("today", "", "evaluate dates as of this day (YYYY-MM-DD)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); serve defaults to info, other commands to warn")
	for _, name := range []string{"config", "seed", "json", "actor-id", "today", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(inspectionsCmd())
	rootCmd.AddCommand(contractsCmd())
	rootCmd.AddCommand(suppliersCmd())
	rootCmd.AddCommand(ordersCmd())
	rootCmd.AddCommand(worksCmd())
	rootCmd.AddCommand(checklistsCmd())
	rootCmd.AddCommand(roundsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- inspections ---

func inspectionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "inspections", Short: "Certificates and inspection reports"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List items, most urgent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListCompliance(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Name", "Type", "Expiry", "Level", "Status"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Name, it.Type, it.ExpiryDisplay, it.Status.Level, it.Status.Label})
				}
				tw.Render()
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Count items per level",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				sum, err := e.ComplianceSummary(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sum)
				}
				fmt.Printf("Valid: %d\nWarning: %d\nCritical: %d\nTotal: %d\n", sum.Valid, sum.Warning, sum.Critical, sum.Total)
				return nil
			})
		},
	})
	return cmd
}

// --- contracts, suppliers, orders ---

func contractsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "contracts", Short: "Maintenance contracts"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List contracts with their renewal status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListContracts(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Supplier", "Service", "Ends", "Value", "Status"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.Supplier, c.Service, c.EndDisplay, c.ValueDisplay, c.Status.Label})
				}
				tw.Render()
				return nil
			})
		},
	})
	return cmd
}

func suppliersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "suppliers", Short: "Suppliers"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List suppliers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListSuppliers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Name", "Service", "Contact", "Rating", "Documents"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.ID, s.Name, s.Service, s.Contact, fmt.Sprintf("%.1f (%d)", s.Rating, s.Evaluations), strings.Join(s.Documents, ", ")})
				}
				tw.Render()
				return nil
			})
		},
	})
	return cmd
}

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Service orders"}
	var statusFilter string
	list := &cobra.Command{
		Use:   "list",
		Short: "List service orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListServiceOrders(ctx, statusFilter)
				if err != nil {
					return err
				}
				return printOrders(items)
			})
		},
	}
	list.Flags().StringVar(&statusFilter, "status", "", "filter by status (open, in_progress, completed)")
	cmd.AddCommand(list)
	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a service order forward",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				o, err := e.SetServiceOrderStatus(ctx, args[0], args[1], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printOrders([]domain.ServiceOrder{o})
			})
		},
	})
	return cmd
}

func printOrders(items []domain.ServiceOrder) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable(table.Row{"ID", "Title", "Supplier", "Priority", "Status", "Updated"})
	for _, o := range items {
		tw.AppendRow(table.Row{o.ID, o.Title, o.Supplier, o.Priority, o.Status, o.UpdatedAt})
	}
	tw.Render()
	return nil
}

// --- works ---

func worksCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "works", Short: "Renovation requests"}
	cmd.AddCommand(worksListCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a request and its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				w, err := e.GetWorkRequest(ctx, args[0])
				if err != nil {
					return err
				}
				return printWorkRequest(w)
			})
		},
	})
	cmd.AddCommand(worksSubmitCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "analyze <id>",
		Short: "Start analysing a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				w, err := e.StartAnalysis(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printWorkRequest(w)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "upload <id> <document>...",
		Short: "Mark documents as uploaded",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var w domain.WorkRequest
				for _, name := range args[1:] {
					var err error
					w, err = e.UploadDocument(ctx, args[0], name, viper.GetString("actor-id"))
					if err != nil {
						return err
					}
				}
				return printWorkRequest(w)
			})
		},
	})
	cmd.AddCommand(worksApproveCmd())
	cmd.AddCommand(worksRejectCmd())
	return cmd
}

func worksListCmd() *cobra.Command {
	var statusFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List renovation requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListWorkRequests(ctx, statusFilter)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Unit", "Resident", "Type", "Status", "Documents"})
				for _, w := range items {
					tw.AppendRow(table.Row{w.ID, w.Unit, w.Resident, w.WorkType, w.Status, documentCount(w.Documents)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&statusFilter, "status", "", "filter by status (pending, in_analysis, approved, rejected)")
	return cmd
}

func worksSubmitCmd() *cobra.Command {
	var unit, resident, workType, description string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a renovation request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				w, err := e.SubmitWorkRequest(ctx, engine.WorkRequestSubmitOptions{
					Unit:        unit,
					Resident:    resident,
					WorkType:    workType,
					Description: description,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printWorkRequest(w)
			})
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "unit number")
	cmd.Flags().StringVar(&resident, "resident", "", "resident name")
	cmd.Flags().StringVar(&workType, "type", domain.WorkNonStructural, "structural or non_structural")
	cmd.Flags().StringVar(&description, "description", "", "description")
	_ = cmd.MarkFlagRequired("unit")
	_ = cmd.MarkFlagRequired("resident")
	return cmd
}

func worksApproveCmd() *cobra.Command {
	var uploads []string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a request once every required document is uploaded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor := viper.GetString("actor-id")
				for _, name := range uploads {
					if _, err := e.UploadDocument(ctx, args[0], name, actor); err != nil {
						return err
					}
				}
				w, res, err := e.ApproveWorkRequest(ctx, args[0], actor)
				if err != nil {
					return err
				}
				if !res.Allowed {
					return declinedError{entity: "work request " + args[0], res: res}
				}
				return printWorkRequest(w)
			})
		},
	}
	cmd.Flags().StringArrayVar(&uploads, "upload", nil, "mark a document uploaded before approving (repeatable)")
	return cmd
}

func worksRejectCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a request under analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				w, err := e.RejectWorkRequest(ctx, args[0], reason, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printWorkRequest(w)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason")
	return cmd
}

func documentCount(docs []domain.Document) string {
	uploaded := 0
	for _, d := range docs {
		if d.Uploaded {
			uploaded++
		}
	}
	return fmt.Sprintf("%d/%d", uploaded, len(docs))
}

func printWorkRequest(w domain.WorkRequest) error {
	if viper.GetBool("json") {
		return printJSON(w)
	}
	fmt.Printf("Request %s: unit %s, %s (%s) [%s]\n", w.ID, w.Unit, w.Resident, w.WorkType, w.Status)
	if w.Description != "" {
		fmt.Println(w.Description)
	}
	tw := newTable(table.Row{"Document", "Type", "Required", "Uploaded"})
	for _, d := range w.Documents {
		tw.AppendRow(table.Row{d.Name, d.Type, yesNo(d.Required), yesNo(d.Uploaded)})
	}
	tw.Render()
	return nil
}

// --- checklists ---

func checklistsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "checklists", Short: "Porter checklists"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List checklists with progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListChecklists(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Name", "Shift", "Status", "Progress"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.Name, c.Shift, c.Status, progressText(e, c.Progress)})
				}
				tw.Render()
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a checklist and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.GetChecklist(ctx, args[0])
				if err != nil {
					return err
				}
				return printChecklist(e, c)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id> <task-id>...",
		Short: "Flip tasks between done and not done",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var c domain.ChecklistView
				for _, taskID := range args[1:] {
					var err error
					c, err = e.ToggleTask(ctx, args[0], taskID, viper.GetString("actor-id"))
					if err != nil {
						return err
					}
				}
				return printChecklist(e, c)
			})
		},
	})
	cmd.AddCommand(checklistsCompleteCmd())
	return cmd
}

func checklistsCompleteCmd() *cobra.Command {
	var toggles []string
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Finalize a checklist once every required task is done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor := viper.GetString("actor-id")
				for _, taskID := range toggles {
					if _, err := e.ToggleTask(ctx, args[0], taskID, actor); err != nil {
						return err
					}
				}
				c, res, err := e.CompleteChecklist(ctx, args[0], actor)
				if err != nil {
					return err
				}
				if !res.Allowed {
					return declinedError{entity: "checklist " + args[0], res: res}
				}
				return printChecklist(e, c)
			})
		},
	}
	cmd.Flags().StringArrayVar(&toggles, "toggle", nil, "toggle a task before completing (repeatable)")
	return cmd
}

func progressText(e engine.Engine, p domain.Progress) string {
	return fmt.Sprintf("%d/%d (%s)", p.Completed, p.Total, e.Display.Percent(p.Percentage))
}

func printChecklist(e engine.Engine, c domain.ChecklistView) error {
	if viper.GetBool("json") {
		return printJSON(c)
	}
	fmt.Printf("Checklist %s: %s (%s) [%s] %s\n", c.ID, c.Name, c.Shift, c.Status, progressText(e, c.Progress))
	if c.CompletedAt != nil {
		by := ""
		if c.CompletedBy != nil {
			by = " by " + *c.CompletedBy
		}
		fmt.Printf("Completed %s%s\n", e.Display.DateTime(*c.CompletedAt), by)
	}
	tw := newTable(table.Row{"ID", "Task", "Required", "Done"})
	for _, t := range c.Tasks {
		tw.AppendRow(table.Row{t.ID, t.Title, yesNo(t.Required), yesNo(t.Completed)})
	}
	tw.Render()
	return nil
}

// --- rounds ---

func roundsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rounds", Short: "Security rounds and QR control points"}
	cmd.AddCommand(&cobra.Command{
		Use:   "points",
		Short: "List control points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListControlPoints(ctx)
				if err != nil {
					return err
				}
				return printPoints(e, items)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List security rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListSecurityRounds(ctx)
				if err != nil {
					return err
				}
				return printRounds(e, items)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "scan <point-id-or-qr>",
		Short: "Record a QR scan in every round in progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.ScanControlPoint(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				if err := printPoints(e, []domain.ControlPoint{res.Point}); err != nil {
					return err
				}
				return printRounds(e, res.Rounds)
			})
		},
	})
	return cmd
}

func printPoints(e engine.Engine, items []domain.ControlPoint) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable(table.Row{"ID", "Name", "Location", "QR", "Last check"})
	for _, p := range items {
		last := "-"
		if p.LastCheck != nil {
			last = e.Display.DateTime(*p.LastCheck)
		}
		tw.AppendRow(table.Row{p.ID, p.Name, p.Location, p.QRCode, last})
	}
	tw.Render()
	return nil
}

func printRounds(e engine.Engine, items []domain.RoundView) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable(table.Row{"ID", "Date", "Shift", "Porter", "Status", "Checked"})
	for _, r := range items {
		tw.AppendRow(table.Row{r.ID, e.Display.Date(r.Date), r.Shift, r.Porter, r.Status, fmt.Sprintf("%d/%d", r.Checked, r.Total)})
	}
	tw.Render()
	return nil
}

// --- log ---

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Event log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListEvents(ctx, engine.EventFilters{
					Type:       evtType,
					EntityKind: entityKind,
					EntityID:   entityID,
					Limit:      n,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(table.Row{"ID", "Time", "Type", "Entity", "Actor", "Payload"})
				for _, evt := range items {
					tw.AppendRow(table.Row{evt.ID, e.Display.DateTime(evt.TS), evt.Type, strings.TrimSuffix(evt.EntityKind+" "+evt.EntityID, " "), evt.ActorID, evt.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

// --- config ---

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect config",
		Long:  "Config holds the classification thresholds for inspections and contracts, the display locale and the server defaults. Missing sections fall back to the built-in values.",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(c)
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(c)
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := loadConfig()
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	})
	cfg.AddCommand(configInitCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("config")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") && cfg.Server.Addr != "" {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("base-path") && cfg.Server.BasePath != "" {
				basePath = cfg.Server.BasePath
			}
			logger := newLogger(slog.LevelInfo)
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			rec, err := metrics.New(reg)
			if err != nil {
				return err
			}
			opts, err := bootstrapOptions(cfg)
			if err != nil {
				return err
			}
			opts.Metrics = rec
			opts.Logger = logger
			e, conn, err := app.Bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer conn.Close()
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Logger: logger, Gatherer: reg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info("serving condopapers API", "addr", addr, "base_path", basePath, "openapi", basePath+"/openapi.json", "docs", "/docs")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	return config.LoadOptional(viper.GetString("config"))
}

func newLogger(fallback slog.Level) *slog.Logger {
	level := fallback
	if raw := viper.GetString("log-level"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			level = fallback
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// clock returns the time source for --today: that day at the current
// wall-clock time.
func clock() (func() time.Time, error) {
	raw := strings.TrimSpace(viper.GetString("today"))
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("--today must be YYYY-MM-DD: %w", err)
	}
	return func() time.Time {
		now := time.Now()
		return time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.Local)
	}, nil
}

func bootstrapOptions(cfg *config.Config) (app.Options, error) {
	now, err := clock()
	if err != nil {
		return app.Options{}, err
	}
	return app.Options{
		Config:   cfg,
		SeedPath: viper.GetString("seed"),
		ActorID:  viper.GetString("actor-id"),
		Now:      now,
	}, nil
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := bootstrapOptions(cfg)
	if err != nil {
		return err
	}
	opts.Logger = newLogger(slog.LevelWarn)
	e, conn, err := app.Bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, e)
}

func newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
