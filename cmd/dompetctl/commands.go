package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"dompet/internal/backend"
	internalcli "dompet/internal/cli"
	"dompet/internal/config"
	"dompet/internal/core"
	"dompet/internal/ledger/memory"
	"dompet/internal/log"
	"dompet/internal/services"
	gsheet "dompet/internal/sheets/google"
	"dompet/internal/worker"
)

// Globals are flags shared by every command. Unset flags fall back to the
// environment the server reads.
type Globals struct {
	EnvFile string        `name:"env-file" default:".env" help:"Environment file to load before reading configuration."`
	Backend string        `help:"Ledger backend (memory, sqlite, postgres). Overrides DATA_BACKEND."`
	JSON    bool          `help:"Print machine-readable JSON."`
	Timeout time.Duration `default:"1m" help:"Overall command timeout."`
}

// app is the wiring a command runs against.
type app struct {
	cfg          *config.Config
	logger       *log.Logger
	backend      *backend.Result
	transactions *services.TransactionService
	dashboards   *services.DashboardService
}

func (g *Globals) writer() io.Writer {
	return os.Stdout
}

func (g *Globals) open(ctx context.Context) (*app, error) {
	if err := internalcli.LoadEnvFile(g.EnvFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", g.EnvFile, err)
	}
	cfg := config.Load()
	if g.Backend != "" {
		cfg.DataBackend = g.Backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Output = os.Stderr
	logger := log.New(lc)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:          cfg,
		logger:       logger,
		backend:      res,
		transactions: services.NewTransactionService(res.Store, res.Publisher, nil, logger),
		dashboards:   services.NewDashboardService(res.Store, logger, services.WithLocation(cfg.Location())),
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

// run opens the app, runs fn under the global timeout and closes the app.
func (g *Globals) run(fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), g.Timeout)
	defer cancel()
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func (g *Globals) printJSON(v any) error {
	enc := json.NewEncoder(g.writer())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type filterFlags struct {
	From     string   `help:"Earliest date, YYYY-MM-DD."`
	To       string   `help:"Latest date, YYYY-MM-DD, inclusive."`
	Type     string   `help:"income or expense."`
	Category []string `help:"Restrict to categories; repeatable."`
}

func (f filterFlags) filter() (core.Filter, error) {
	var out core.Filter
	if f.From != "" {
		d, err := core.ParseDate(f.From)
		if err != nil {
			return out, err
		}
		out.From = &d
	}
	if f.To != "" {
		d, err := core.ParseDate(f.To)
		if err != nil {
			return out, err
		}
		out.To = &d
	}
	if f.Type != "" {
		t, err := core.ParseTxType(f.Type)
		if err != nil {
			return out, err
		}
		out.Type = t
	}
	out.Categories = f.Category
	return out, nil
}

type summaryCmd struct {
	Period string `default:"monthly" enum:"daily,weekly,monthly,yearly" help:"Period to summarise (daily, weekly, monthly, yearly)."`
}

func (c *summaryCmd) Run(g *Globals) error {
	period, err := core.ParsePeriod(c.Period)
	if err != nil {
		return err
	}
	return g.run(func(ctx context.Context, a *app) error {
		d, err := a.dashboards.Dashboard(ctx, period)
		if err != nil {
			return err
		}
		if g.JSON {
			return g.printJSON(d)
		}
		return printDashboard(g.writer(), d)
	})
}

func printDashboard(w io.Writer, d core.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t(%d transactions)\n", d.Label, d.Count)
	fmt.Fprintf(tw, "Income\t%s\t%s\n", d.Totals.Income, d.IncomeDelta.Text)
	fmt.Fprintf(tw, "Expense\t%s\t%s\n", d.Totals.Expense, d.ExpenseDelta.Text)
	fmt.Fprintf(tw, "Balance\t%s\t\n", core.FormatRupiah(d.Totals.Balance))
	fmt.Fprintf(tw, "%s\t%s\t\n", d.AverageLabel, d.AverageExpense)
	if len(d.Categories) > 0 {
		fmt.Fprintln(tw, "\t\t")
		for _, c := range d.Categories {
			fmt.Fprintf(tw, "  %s\t%s\t%s%%\n", c.Name, c.Amount, c.Share.StringFixed(1))
		}
	}
	return tw.Flush()
}

type listCmd struct {
	filterFlags
}

func (c *listCmd) Run(g *Globals) error {
	f, err := c.filter()
	if err != nil {
		return err
	}
	return g.run(func(ctx context.Context, a *app) error {
		txs, err := a.transactions.List(ctx, f)
		if err != nil {
			return err
		}
		if g.JSON {
			return g.printJSON(txs)
		}
		tw := tabwriter.NewWriter(g.writer(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tPAYMENT\tDESCRIPTION")
		for _, t := range txs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.Date, t.Type, t.Category, t.Amount, t.PaymentMethod, strings.TrimSpace(t.Description))
		}
		sum := core.Summarize(txs)
		fmt.Fprintf(tw, "\t\t\t\t\t\t\nTotal income %s, expense %s, balance %s\n",
			sum.Income, sum.Expense, core.FormatRupiah(sum.Balance))
		return tw.Flush()
	})
}

type importCmd struct {
	File string `arg:"" type:"existingfile" help:"JSON array of transactions."`
}

func (c *importCmd) Run(g *Globals) error {
	txs, err := memory.ReadSeed(c.File)
	if err != nil {
		return err
	}
	return g.run(func(ctx context.Context, a *app) error {
		n, err := a.transactions.Import(ctx, txs)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.writer(), "Imported %d transactions into %s\n", n, a.cfg.DataBackend)
		return nil
	})
}

type resyncCmd struct{}

func (c *resyncCmd) Run(g *Globals) error {
	return g.run(func(ctx context.Context, a *app) error {
		if !a.cfg.MirrorEnabled() {
			return fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set")
		}
		mirror, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
			SheetName:       a.cfg.GoogleSheetName,
			CredentialsJSON: a.cfg.GoogleServiceAccountJSON,
			CredentialsFile: a.cfg.GoogleServiceAccountFile,
			Logger:          a.logger,
		})
		if err != nil {
			return err
		}
		if err := worker.NewSyncWorker(mirror, a.backend.Store, a.logger).Resync(ctx); err != nil {
			return err
		}
		fmt.Fprintln(g.writer(), "Mirror rewritten")
		return nil
	})
}
