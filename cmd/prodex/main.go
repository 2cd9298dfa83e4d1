package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/anthropic"
	"github.com/fwojciec/prodex/extract"
	"github.com/fwojciec/prodex/fs"
	"github.com/fwojciec/prodex/gemini"
	"github.com/fwojciec/prodex/goquery"
	"github.com/fwojciec/prodex/gson"
	"github.com/fwojciec/prodex/htmltomarkdown"
	prodexhttp "github.com/fwojciec/prodex/http"
	"github.com/fwojciec/prodex/readability"
	"github.com/fwojciec/prodex/rod"
	pslog "github.com/fwojciec/prodex/slog"
	"github.com/fwojciec/prodex/sqlite"
	"github.com/fwojciec/prodex/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// DBPath locates the SQLite database. Set before calling Run().
	DBPath string

	// ConfigDir, when set, stores domain configs as JSON files there
	// instead of in the database.
	ConfigDir string

	// GeminiAPIKey and AnthropicAPIKey enable the oracle backends.
	GeminiAPIKey    string
	AnthropicAPIKey string

	DB *sqlite.DB

	// closers run in reverse order on Close.
	closers []func() error
}

// NewMain returns a new instance of Main with defaults from the
// environment.
func NewMain() *Main {
	return &Main{
		DBPath:          defaultDBPath(),
		ConfigDir:       os.Getenv("PRODEX_CONFIG_DIR"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var firstErr error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closers = nil
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("prodex"),
		kong.Description("Learn and run per-shop product extraction strategies."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'prodex --help' to see available commands")
	}
	switch args[0] {
	case "help", "--help", "-h":
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	defer m.Close()

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := m.openStores(deps); err != nil {
		return err
	}

	switch commandName(kongCtx.Command()) {
	case "learn":
		if err := m.wireLearn(ctx, deps, cli.Oracle, cli.Learn.Static); err != nil {
			return err
		}
	case "extract":
		if err := m.wireExtract(ctx, deps, cli.Oracle, &cli.Extract); err != nil {
			return err
		}
	case "samples":
		deps.Samples = pslog.NewLoggingSampleSource(prodexhttp.NewSampleSource(nil), deps.Logger)
	}

	return kongCtx.Run(deps)
}

// openStores opens the database and picks the config store.
func (m *Main) openStores(deps *Dependencies) error {
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "Hint: Set PRODEX_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	m.closers = append(m.closers, m.DB.Close)

	var configs prodex.ConfigStore = sqlite.NewConfigStore(m.DB)
	if m.ConfigDir != "" {
		configs = fs.NewConfigStore(m.ConfigDir)
	}
	deps.Configs = pslog.NewLoggingConfigStore(configs, deps.Logger)
	return nil
}

// services are the collaborators shared by learn and extract.
type services struct {
	patterns   prodex.PatternStore
	applier    prodex.PatternApplier
	cache      prodex.PatternCache
	oracle     prodex.Oracle
	strategies *prodex.StrategySet
}

func (m *Main) newServices(ctx context.Context, deps *Dependencies, backend string) (*services, error) {
	logger := deps.Logger
	conv := htmltomarkdown.NewConverter()
	content := trafilatura.NewExtractor(readability.NewExtractor())
	client := &http.Client{Timeout: prodexhttp.DefaultLoadTimeout}

	s := &services{
		patterns: sqlite.NewPatternStore(m.DB),
		applier:  goquery.NewPatternApplier(conv),
	}
	s.cache = &extract.PatternCache{Patterns: s.patterns, Applier: s.applier, Logger: logger}

	oracle, err := m.newOracle(ctx, deps, backend)
	if err != nil {
		return nil, err
	}
	if oracle != nil {
		s.oracle = pslog.NewLoggingOracle(oracle, logger)
	}

	oracleStrategy := &extract.OracleStrategy{
		Oracle:   s.oracle,
		Patterns: s.patterns,
		Applier:  s.applier,
		Cache:    s.cache,
		Logger:   logger,
	}

	s.strategies = prodex.NewStrategySet(pslog.WrapStrategies(logger,
		prodexhttp.NewNativeEndpointStrategy(client),
		prodexhttp.NewStorefrontStrategy(client),
		goquery.NewStructuredMarkupStrategy(conv),
		gson.NewNetworkStrategy(),
		goquery.NewMetaTagStrategy(content),
		&extract.PatternStrategy{Patterns: s.patterns, Applier: s.applier},
		oracleStrategy,
	)...)
	return s, nil
}

// newOracle returns the selected backend, or nil when its API key is not
// set. Both backends bound prompts with the local Gemini tokenizer.
func (m *Main) newOracle(ctx context.Context, deps *Dependencies, backend string) (prodex.Oracle, error) {
	switch backend {
	case "anthropic":
		if m.AnthropicAPIKey == "" {
			return nil, nil
		}
		counter, err := gemini.NewTokenCounter(gemini.DefaultModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		return anthropic.NewOracle(m.AnthropicAPIKey, counter), nil
	default:
		if m.GeminiAPIKey == "" {
			return nil, nil
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  m.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		counter, err := gemini.NewTokenCounter(gemini.DefaultModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		return gemini.NewOracle(client, counter), nil
	}
}

// newLoader starts a browser unless static loading was asked for.
func (m *Main) newLoader(deps *Dependencies, static bool) (prodex.PageLoader, error) {
	if static {
		return pslog.NewLoggingPageLoader(prodexhttp.NewLoader(), deps.Logger), nil
	}
	manager, err := m.startBrowser(deps)
	if err != nil {
		return nil, err
	}
	return pslog.NewLoggingPageLoader(rod.NewLoader(manager), deps.Logger), nil
}

func (m *Main) startBrowser(deps *Dependencies) (*rod.BrowserManager, error) {
	manager, err := rod.NewBrowserManager()
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or pass --static")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	m.closers = append(m.closers, manager.Close)
	return manager, nil
}

func (m *Main) wireLearn(ctx context.Context, deps *Dependencies, backend string, static bool) error {
	switch {
	case backend == "anthropic" && m.AnthropicAPIKey == "":
		fmt.Fprintln(deps.Stderr, "ANTHROPIC_API_KEY environment variable not set. Get an API key at https://console.anthropic.com")
		return fmt.Errorf("ANTHROPIC_API_KEY not set. Learning needs the oracle")
	case backend != "anthropic" && m.GeminiAPIKey == "":
		fmt.Fprintln(deps.Stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return fmt.Errorf("GEMINI_API_KEY not set. Learning needs the oracle")
	}
	svc, err := m.newServices(ctx, deps, backend)
	if err != nil {
		return err
	}
	loader, err := m.newLoader(deps, static)
	if err != nil {
		return err
	}

	retry := extract.DefaultRetryDelays()
	deps.Learner = &extract.Learner{
		Discoverer: &extract.Discoverer{
			Loader:      loader,
			Strategies:  svc.strategies,
			Oracle:      svc.oracle,
			Patterns:    svc.cache,
			RetryDelays: retry,
			Logger:      deps.Logger,
		},
		Verifier: &extract.Verifier{
			Loader:      loader,
			Strategies:  svc.strategies,
			RetryDelays: retry,
			Logger:      deps.Logger,
		},
		Calibrator: &extract.Calibrator{
			Loader:     loader,
			Strategies: svc.strategies,
			Logger:     deps.Logger,
		},
		Configs: deps.Configs,
		Locks:   &extract.DomainLocks{},
		Samples: pslog.NewLoggingSampleSource(prodexhttp.NewSampleSource(nil), deps.Logger),
		Logger:  deps.Logger,
	}
	return nil
}

func (m *Main) wireExtract(ctx context.Context, deps *Dependencies, backend string, cmd *ExtractCmd) error {
	svc, err := m.newServices(ctx, deps, backend)
	if err != nil {
		return err
	}
	if cmd.Out != "" {
		deps.Results = fs.NewResultWriter(cmd.Out)
	}

	if cmd.Static {
		loader, err := m.newLoader(deps, true)
		if err != nil {
			return err
		}
		deps.Extractor = &extract.Extractor{
			Loader:      loader,
			Strategies:  svc.strategies,
			Limiter:     extract.NewDomainLimiter(2, 2),
			RetryDelays: extract.DefaultRetryDelays(),
			Logger:      deps.Logger,
		}
		return nil
	}

	manager, err := m.startBrowser(deps)
	if err != nil {
		return err
	}
	pool := rod.NewPool(manager, cmd.Concurrency)
	m.closers = append(m.closers, pool.Close)

	detector := goquery.NewDetector()
	deps.Extractor = &extract.PooledExtractor{
		Pool:       pslog.NewLoggingSessionPool(pool, deps.Logger),
		Strategies: svc.strategies,
		Gallery:    pslog.NewLoggingGallerySelector(goquery.NewGallerySelector(detector, goquery.NewRegistry()), detector, deps.Logger),
		Dwell:      time.Second,
		Logger:     deps.Logger,
	}
	return nil
}

// commandName returns the subcommand of a kong command path such as
// "learn <url> <verification-url>".
func commandName(path string) string {
	name, _, _ := strings.Cut(path, " ")
	return name
}

func defaultDBPath() string {
	if path := os.Getenv("PRODEX_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "prodex.db"
	}
	dir := filepath.Join(home, ".prodex")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "prodex.db")
}
