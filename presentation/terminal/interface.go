package terminal

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront_e2e/application/storefront"
	"storefront_e2e/application/suite"
	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
	"storefront_e2e/infrastructure/browser"
	"storefront_e2e/infrastructure/config"
	"storefront_e2e/infrastructure/storage"
)

// Flags are the command line options; they override config file and environment
type Flags struct {
	ConfigPath  string
	BaseURL     string
	Driver      string
	Run         string
	Headless    bool
	Interactive bool
	Audit       bool
	List        bool

	headlessSet bool
}

// ParseFlags - parses command line arguments
func ParseFlags(args []string, output io.Writer) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("storefront_e2e", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&f.ConfigPath, "config", os.Getenv("STOREFRONT_CONFIG"), "path to a TOML config file")
	fs.StringVar(&f.BaseURL, "base-url", "", "storefront base URL")
	fs.StringVar(&f.Driver, "driver", "", "browser driver: "+strings.Join(browser.Drivers, "|"))
	fs.StringVar(&f.Run, "run", "", "run only scenarios whose id matches this regexp")
	fs.BoolVar(&f.Headless, "headless", true, "run the browser headless")
	fs.BoolVar(&f.Interactive, "interactive", false, "start an interactive prompt")
	fs.BoolVar(&f.Audit, "audit", false, "audit selector sets against the server-rendered pages")
	fs.BoolVar(&f.List, "list", false, "list scenarios and exit")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "headless" {
			f.headlessSet = true
		}
	})
	return f, nil
}

// apply overrides cfg with the flags that were given
func (f Flags) apply(cfg *config.Config) {
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.Driver != "" {
		cfg.Browser.Driver = f.Driver
	}
	if f.headlessSet {
		cfg.Browser.Headless = f.Headless
	}
}

type TerminalInterface struct {
	flags   Flags
	cfg     *config.Config
	helpers *storefront.Helpers
	store   interfaces.ReportStore
	logger  *logrus.Logger
	reader  *bufio.Reader
	out     io.Writer

	browser interfaces.Browser
}

func NewTerminalInterface(args []string) (*TerminalInterface, error) {
	flags, err := ParseFlags(args, os.Stderr)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg)

	// Setup logger
	logger := logrus.New()
	logger.SetLevel(cfg.Level())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	opts, err := cfg.HelperOptions()
	if err != nil {
		return nil, err
	}

	return &TerminalInterface{
		flags:   flags,
		cfg:     cfg,
		helpers: storefront.NewHelpers(opts, logger),
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// Run executes the selected mode and returns the process exit code
func (t *TerminalInterface) Run(ctx context.Context) (int, error) {
	catalog := suite.Catalog(t.paths())
	if t.flags.List {
		t.list(catalog)
		return 0, nil
	}
	if err := t.cfg.Validate(); err != nil {
		return 2, err
	}

	if t.flags.Audit {
		missing, err := t.audit(ctx, "")
		if err != nil {
			return 1, err
		}
		if missing > 0 {
			return 1, nil
		}
		return 0, nil
	}

	store, err := storage.NewReportStore(t.cfg.ReportDir)
	if err != nil {
		return 2, err
	}
	t.store = store

	if t.flags.Interactive {
		return 0, t.repl(ctx, catalog)
	}

	selected, err := suite.Select(catalog, t.flags.Run)
	if err != nil {
		return 2, err
	}
	report, err := t.runSuite(ctx, selected)
	if err != nil {
		return 1, err
	}
	if report.Failed() {
		return 1, nil
	}
	return 0, nil
}

func (t *TerminalInterface) paths() suite.Paths {
	p := t.cfg.Paths
	return suite.Paths{Home: p.Home, Product: p.Product, Collection: p.Collection}
}

func (t *TerminalInterface) list(catalog []suite.Definition) {
	for _, d := range catalog {
		marker := ""
		if d.EmptyCart {
			marker = " (empties cart)"
		}
		fmt.Fprintf(t.out, "%-32s %-10s %s%s\n", d.ID, d.Viewport, d.Description, marker)
	}
}

func (t *TerminalInterface) ensureBrowser(ctx context.Context) (interfaces.Browser, error) {
	if t.browser != nil {
		return t.browser, nil
	}
	b, err := browser.New(ctx, t.cfg.BrowserSettings(), t.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	t.browser = b
	return b, nil
}

func (t *TerminalInterface) runSuite(ctx context.Context, scenarios []suite.Definition) (*entities.RunReport, error) {
	b, err := t.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}
	previous, err := t.store.LatestReport()
	if err != nil && !errors.Is(err, storage.ErrNoReports) {
		t.logger.Warnf("Failed to load previous report: %v", err)
	}

	runner := suite.NewRunner(b, t.helpers, t.store, t.cfg.NoiseFilter(t.logger), t.logger, suite.RunnerOptions{
		Retries:         t.cfg.SuiteRetries,
		ScenarioTimeout: t.cfg.ScenarioTimeout,
	})
	report, err := runner.Run(ctx, scenarios)
	if report != nil {
		t.summary(report)
		if diff, derr := suite.Compare(previous, report); derr == nil && diff != "" {
			fmt.Fprintf(t.out, "\nChanges since previous run:\n%s", diff)
		}
	}
	return report, err
}

func (t *TerminalInterface) summary(report *entities.RunReport) {
	fmt.Fprintf(t.out, "\nRun %s against %s (%s)\n", report.ID, report.BaseURL, report.Driver)
	for _, res := range report.Results {
		line := fmt.Sprintf("  %-7s %-32s %6s", strings.ToUpper(string(res.Status)), res.ScenarioID, res.Duration.Round(100*time.Millisecond))
		if res.Attempts > 1 {
			line += fmt.Sprintf("  attempts=%d", res.Attempts)
		}
		if res.Error != "" {
			line += "  " + res.Error
		}
		if res.Screenshot != "" {
			line += "  screenshot=" + res.Screenshot
		}
		fmt.Fprintln(t.out, line)
	}
	fmt.Fprintf(t.out, "%d passed, %d failed, %d skipped\n",
		report.Count(entities.ScenarioPassed), report.Count(entities.ScenarioFailed), report.Count(entities.ScenarioSkipped))
}

// audit fetches the scenario pages (or only path) and prints how each selector set resolves
func (t *TerminalInterface) audit(ctx context.Context, path string) (int, error) {
	paths := []string{path}
	if path == "" {
		p := t.paths()
		paths = []string{p.Home, p.Product, p.Collection}
	}
	client := &http.Client{Timeout: 30 * time.Second}
	missing := 0
	for _, p := range paths {
		doc, err := browser.FetchDocument(ctx, client, t.helpers.URL(p))
		if err != nil {
			return missing, err
		}
		result := t.helpers.Audit(ctx, doc, doc.URL(), doc.Title())
		fmt.Fprintf(t.out, "\n%s (%s)\n", result.URL, result.Title)
		for _, e := range result.Entries {
			if e.Matched == nil {
				fmt.Fprintf(t.out, "  %-22s MISSING\n", e.Set)
			} else {
				fmt.Fprintf(t.out, "  %-22s %-3d %s\n", e.Set, e.Count, e.Matched)
			}
			for _, msg := range e.Errors {
				fmt.Fprintf(t.out, "  %-22s error: %s\n", "", msg)
			}
		}
		missing += len(result.Missing())
	}
	return missing, nil
}

func (t *TerminalInterface) repl(ctx context.Context, catalog []suite.Definition) error {
	fmt.Fprintln(t.out, "Storefront checks")
	fmt.Fprintln(t.out, "=================")
	fmt.Fprintln(t.out, "Commands: list, run [regexp], audit [path], last, quit")
	fmt.Fprintln(t.out)

	for {
		fmt.Fprint(t.out, "> ")
		input, err := t.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(t.out, "Bye")
			return nil
		case "list", "ls":
			t.list(catalog)
		case "run":
			selected, err := suite.Select(catalog, arg)
			if err != nil {
				fmt.Fprintf(t.out, "%v\n", err)
				continue
			}
			if _, err := t.runSuite(ctx, selected); err != nil {
				fmt.Fprintf(t.out, "\nRun failed: %v\n\n", err)
			}
		case "audit":
			if _, err := t.audit(ctx, arg); err != nil {
				fmt.Fprintf(t.out, "\nAudit failed: %v\n\n", err)
			}
		case "last":
			report, err := t.store.LatestReport()
			if err != nil {
				fmt.Fprintf(t.out, "%v\n", err)
				continue
			}
			t.summary(report)
		default:
			fmt.Fprintf(t.out, "unknown command %q\n", cmd)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (t *TerminalInterface) Close() error {
	if t.browser == nil {
		return nil
	}
	err := t.browser.Close()
	t.browser = nil
	return err
}
