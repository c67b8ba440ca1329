package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"kakeibo/internal/cli"
	"kakeibo/internal/config"
	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/metrics"
	"kakeibo/internal/services"
	"kakeibo/internal/storage"
	"kakeibo/internal/worker"
)

// Commands lists every admin subcommand.
var Commands = []subcommands.Command{
	&migrateCmd{},
	&settleCmd{},
	&runRecurringCmd{},
	&nextDueCmd{},
	&reconcileCmd{},
}

func bootstrap() (*config.Config, *log.Logger) {
	return cli.Bootstrap(log.ComponentAdmin)
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}

type migrateCmd struct {
	down    int
	version bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply, roll back or inspect schema migrations" }
func (*migrateCmd) Usage() string {
	return `kakeibo-admin migrate [-down <steps>] [-version]

  Applies every pending migration. With -down, reverts the given number of
  migrations instead. With -version, only prints the applied version.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.down, "down", 0, "Number of migrations to roll back.")
	f.BoolVar(&c.version, "version", false, "Print the applied schema version and exit.")
}

func (c *migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger := bootstrap()

	if !c.version {
		if c.down > 0 {
			if err := storage.RollbackMigrations(cfg.SQLiteDBPath, c.down); err != nil {
				return fail("%v", err)
			}
			logger.Info("Migrations rolled back", "steps", c.down)
		} else {
			if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
				return fail("%v", err)
			}
			logger.Info("Migrations applied")
		}
	}

	version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
	if err != nil {
		return fail("%v", err)
	}
	fmt.Printf("schema version %d", version)
	if dirty {
		fmt.Print(" (dirty)")
	}
	fmt.Println()
	return subcommands.ExitSuccess
}

type settleCmd struct {
	user string
	from string
	to   string
}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "print who owes whom for a user's couple" }
func (*settleCmd) Usage() string {
	return `kakeibo-admin settle -user <id> [-from YYYY-MM-DD] [-to YYYY-MM-DD]

  Computes the settlement of the couple of the given user over a date range.
  The range defaults to the current month.
`
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User ID whose point of view is printed.")
	f.StringVar(&c.from, "from", "", "First day of the range (inclusive).")
	f.StringVar(&c.to, "to", "", "Last day of the range (inclusive).")
}

func (c *settleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return fail("settle: -user is required")
	}
	now := time.Now().UTC()
	from, to := core.MonthRange(now.Year(), int(now.Month()))
	var err error
	if c.from != "" {
		if from, err = core.ParseDate(c.from); err != nil {
			return fail("settle: %v", err)
		}
	}
	if c.to != "" {
		if to, err = core.ParseDate(c.to); err != nil {
			return fail("settle: %v", err)
		}
	}

	cfg, logger := bootstrap()
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	s, err := services.NewSettlementService(repo).Settle(ctx, c.user, from, to)
	if err != nil {
		return fail("settle: %v", err)
	}

	fmt.Printf("%-16s%s .. %s\n", "period", from, to)
	fmt.Printf("%-16s%s\n", "paid by you", s.MyPaid.Format(cfg.Currency))
	fmt.Printf("%-16s%s\n", "paid by partner", s.PartnerPaid.Format(cfg.Currency))
	fmt.Printf("%-16s%s\n", "total", s.Total.Format(cfg.Currency))
	switch {
	case s.Amount.IsZero():
		fmt.Println("settled, nothing to transfer")
	case s.IPayPartner:
		fmt.Printf("you pay your partner %s\n", s.Amount.Format(cfg.Currency))
	default:
		fmt.Printf("your partner pays you %s\n", s.Amount.Format(cfg.Currency))
	}
	return subcommands.ExitSuccess
}

type runRecurringCmd struct{}

func (*runRecurringCmd) Name() string     { return "run-recurring" }
func (*runRecurringCmd) Synopsis() string { return "materialize every recurring template due today" }
func (*runRecurringCmd) Usage() string {
	return `kakeibo-admin run-recurring

  Runs one sweep of the recurring processor, the same sweep the
  recurring-worker runs on its interval.
`
}

func (*runRecurringCmd) SetFlags(*flag.FlagSet) {}

func (*runRecurringCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger := bootstrap()
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	events, closeEvents := cli.ConnectPublisher(logger, cfg, metrics.New())
	defer closeEvents()

	cats := cfg.Categories()
	processor := services.NewRecurringProcessor(repo, services.NewSplitGenerator(cats), cats, events)
	count, err := processor.ProcessDue(ctx)
	if err != nil {
		return fail("run-recurring: %v", err)
	}
	fmt.Printf("%d transactions created\n", count)
	return subcommands.ExitSuccess
}

type nextDueCmd struct {
	frequency string
	from      string
	day       int
	weekday   int
	count     int
}

func (*nextDueCmd) Name() string     { return "next-due" }
func (*nextDueCmd) Synopsis() string { return "preview the due dates of a recurring schedule" }
func (*nextDueCmd) Usage() string {
	return `kakeibo-admin next-due -frequency <monthly|weekly|yearly> [-day N] [-weekday N] [-from YYYY-MM-DD] [-n N]

  Prints the next N occurrences of a schedule, starting on or after -from.
  -day is the day of the month (1-31), -weekday the day of the week
  (0-6, Monday=0). Does not touch the database.
`
}

func (c *nextDueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.frequency, "frequency", string(core.Monthly), "Schedule frequency.")
	f.StringVar(&c.from, "from", "", "Start date (defaults to today).")
	f.IntVar(&c.day, "day", 0, "Day of the month, 0 for unset.")
	f.IntVar(&c.weekday, "weekday", -1, "Day of the week, -1 for unset.")
	f.IntVar(&c.count, "n", 3, "Number of occurrences to print.")
}

func (c *nextDueCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := core.RecurringTemplate{
		Kind:      core.Expense,
		Category:  "preview",
		Amount:    core.Money{Cents: core.MinSplitCents},
		Frequency: core.Frequency(c.frequency),
	}
	if c.day != 0 {
		rt.DayOfMonth = &c.day
	}
	if c.weekday >= 0 {
		rt.DayOfWeek = &c.weekday
	}
	if err := rt.Validate(); err != nil {
		return fail("next-due: %v", err)
	}
	if c.count < 1 {
		return fail("next-due: -n must be at least 1")
	}

	from := core.DateOf(time.Now().UTC())
	if c.from != "" {
		var err error
		if from, err = core.ParseDate(c.from); err != nil {
			return fail("next-due: %v", err)
		}
	}

	for i := 0; i < c.count; i++ {
		due := services.NextDueDate(rt.Frequency, rt.DayOfMonth, rt.DayOfWeek, from)
		fmt.Printf("%s %s\n", due, due.Weekday())
		from = due.AddDays(1)
	}
	return subcommands.ExitSuccess
}

type reconcileCmd struct {
	year  int
	month int
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "repair the ledger mirror of one month" }
func (*reconcileCmd) Usage() string {
	return `kakeibo-admin reconcile [-year YYYY] [-month M]

  Appends stored transactions missing from the ledger mirror and removes
  mirrored rows no longer in the database. Defaults to the current month.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	now := time.Now().UTC()
	f.IntVar(&c.year, "year", now.Year(), "Year to reconcile.")
	f.IntVar(&c.month, "month", int(now.Month()), "Month to reconcile (1-12).")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.month < 1 || c.month > 12 {
		return fail("reconcile: %v", core.ErrInvalidMonth)
	}

	cfg, logger := bootstrap()
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	mirror, err := cli.OpenLedgerMirror(ctx, cfg)
	if err != nil {
		return fail("reconcile: %v", err)
	}

	lw := worker.NewLedgerWorker(mirror, nil, repo, metrics.New())
	res, err := lw.Reconcile(ctx, c.year, c.month)
	if err != nil {
		return fail("reconcile: %v", err)
	}
	fmt.Printf("%04d-%02d: %d appended, %d removed\n", c.year, c.month, res.Appended, res.Removed)
	return subcommands.ExitSuccess
}
