package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/app"
	"github.com/desertthunder/ldx/internal/collection"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/repositories"
	"github.com/desertthunder/ldx/internal/scanner"
	"github.com/desertthunder/ldx/internal/services"
	"github.com/desertthunder/ldx/internal/session"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/desertthunder/ldx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	db         *sql.DB
	scans      *repositories.ScanRepository
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	outputMu   sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration.
//
// Without an API service the runner talks to the configured backend with an in-memory token.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		tokens := services.NewMemoryTokenStore(shared.NormalizeToken(opts.Config.Auth.Token))
		opts.API = services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient, tokens)
		opts.API.SetLogger(opts.Logger)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
	if opts.DB != nil {
		r.scans = repositories.NewScanRepository(opts.DB)
	}
	return r
}

// SetLogger replaces the logger used by the runner and the API service.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.api.SetLogger(l)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, migrateCommand, authCommand, collectionCommand, bulkCommand, lookupCommand,
		randomCommand, scanCommand, serveCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// notifier prints notifications as status lines.
func (r *Runner) notifier() notify.Notifier {
	return notify.NotifierFunc(func(level notify.Level, message string) {
		symbol := "•"
		switch level {
		case notify.Success:
			symbol = "✓"
		case notify.Warning:
			symbol = "!"
		case notify.Error:
			symbol = "✗"
		}
		r.writePlain("%s %s\n", symbol, shared.Sanitize(message))
	})
}

// quietNotifier sends notifications to the log, keeping machine-readable output clean.
func (r *Runner) quietNotifier() notify.Notifier {
	return notify.NotifierFunc(func(level notify.Level, message string) {
		switch level {
		case notify.Error:
			r.logger.Error(message)
		case notify.Warning:
			r.logger.Warn(message)
		default:
			r.logger.Info(message)
		}
	})
}

// notifierFor picks the quiet notifier when the command prints JSON.
func (r *Runner) notifierFor(cmd *cli.Command) notify.Notifier {
	if cmd.Bool("json") {
		return r.quietNotifier()
	}
	return r.notifier()
}

// progress prints updates until stop is called. stop closes the channel and waits for the printer.
func (r *Runner) progress() (chan tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			r.writePlain("   %s\n", update.Message)
		}
	}()
	return ch, func() {
		close(ch)
		<-done
	}
}

// confirmer asks on the runner's input, or accepts everything when yes is set.
func (r *Runner) confirmer(yes bool) notify.Confirmer {
	return notify.ConfirmFunc(func(prompt string) bool {
		if yes {
			return true
		}
		r.writePlain("%s [y/N] ", prompt)
		var answer string
		if _, err := fmt.Fscanln(r.input, &answer); err != nil {
			return false
		}
		return answer == "y" || answer == "Y" || answer == "yes"
	})
}

// controllerOpts selects the optional collaborators of [Runner.controller].
type controllerOpts struct {
	notifier  notify.Notifier
	confirmer notify.Confirmer
	scanner   *scanner.ScannerUI
	progress  chan<- tasks.ProgressUpdate
}

// controller builds the main controller over a fresh session seeded with the listing defaults.
func (r *Runner) controller(opts controllerOpts) *app.Controller {
	if opts.notifier == nil {
		opts.notifier = r.notifier()
	}

	state := session.New(r.config.Collection.PageSize)
	key, err := models.ParseSortKey(r.config.Collection.SortBy)
	if err != nil {
		key = models.SortTitle
	}
	order, err := models.ParseSortOrder(r.config.Collection.SortOrder)
	if err != nil {
		order = models.Ascending
	}
	filter, err := models.ParseWatchFilter(r.config.Collection.Filter)
	if err != nil {
		filter = models.FilterAll
	}
	state.SetSort(key, order)
	state.SetFilter(filter)

	runner := tasks.NewRunner(r.config.Collection.BulkRate, r.logger)
	coll := collection.NewManager(r.api, state, opts.notifier, runner, r.logger)
	if opts.progress != nil {
		coll.SetProgress(opts.progress)
	}

	var scans app.ScanRecorder
	if r.scans != nil {
		scans = r.scans
	}

	ctrl := app.New(app.Options{
		Backend:    r.api,
		Collection: coll,
		Notifier:   opts.notifier,
		Confirmer:  opts.confirmer,
		Scanner:    opts.scanner,
		Scans:      scans,
		Logger:     r.logger,
	})
	return ctrl
}

// scannerUI builds the decoding engine named by engine, or the configured one when empty.
func (r *Runner) scannerUI(engine string, remote *scanner.RemoteEngine, notifier notify.Notifier) (*scanner.ScannerUI, error) {
	sc := r.config.Scanner
	if engine != "" {
		sc.Engine = engine
	}

	eng, camera, err := scanner.NewEngine(sc, scanner.EngineOptions{Stdin: r.input, Remote: remote, Logger: r.logger})
	if err != nil {
		return nil, err
	}
	ctrl := scanner.NewController(eng, camera, scanner.ConfigFrom(sc), notifier, r.logger)
	return scanner.NewScannerUI(ctrl, notifier), nil
}

// requireDB fails commands that need local storage when no database is open.
func (r *Runner) requireDB() error {
	if r.db == nil {
		return fmt.Errorf("%w: database not initialized, run `ldx setup`", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	r.outputMu.Lock()
	defer r.outputMu.Unlock()

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	r.outputMu.Lock()
	defer r.outputMu.Unlock()
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	r.outputMu.Lock()
	defer r.outputMu.Unlock()
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeItem prints one catalog line: id, watched mark, title and metadata.
func (r *Runner) writeItem(item models.CatalogItem) {
	mark := "○"
	if item.Watched {
		mark = "✓"
	}
	line := fmt.Sprintf("%5d %s %s", item.ID, mark, shared.Sanitize(item.Title))
	if item.Year > 0 {
		line += fmt.Sprintf(" (%d)", item.Year)
	}
	if item.Director != "" {
		line += " • " + shared.Sanitize(item.Director)
	}
	r.writePlain("%s\n", line)
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
