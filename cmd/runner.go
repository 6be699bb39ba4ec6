package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schedsync/schedsync/internal/engine"
	"github.com/schedsync/schedsync/internal/formatter"
	"github.com/schedsync/schedsync/internal/server"
	"github.com/schedsync/schedsync/internal/shared"
	"github.com/schedsync/schedsync/internal/sheet"
	"github.com/schedsync/schedsync/internal/zoho"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	zoho       *zoho.Client
	engine     *engine.Engine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Zoho       *zoho.Client
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Zoho == nil {
		opts.Zoho = zoho.NewClient(opts.Config.Zoho, opts.HTTPClient)
	}

	callTimeout := time.Duration(opts.Config.Sync.CallTimeoutSeconds) * time.Second
	eng := engine.NewEngine(opts.Zoho, opts.Logger, callTimeout)

	return &Runner{
		config:     opts.Config,
		zoho:       opts.Zoho,
		engine:     eng,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, syncCommand, projectsCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Serve starts the HTTP server with the health and sync upload endpoints.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger), server.CORS())
	router.Handler(&server.HealthHandler{})
	router.Handler(server.NewSyncHandler(r.engine, r.zoho.Authenticate, r.logger))

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.logger.Info("server listening", "addr", addr)

	srv := &http.Server{Addr: addr, Handler: router}

	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Sync runs one spreadsheet → Zoho Projects pass from the CLI.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	path := cmd.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := sheet.ReadRows(f)
	if err != nil {
		return err
	}

	if err := r.zoho.Authenticate(ctx); err != nil {
		return err
	}

	progress := make(chan engine.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
		close(done)
	}()

	result, err := r.engine.Run(ctx, rows, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(result, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		if err := r.writePlain("%s", formatter.ResultToText(result)); err != nil {
			return err
		}
	}

	if cmd.Bool("save") {
		path, err := formatter.WriteResultJSON(result, cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("saved run result", "path", path)
	}

	return nil
}

// Projects lists the active remote projects, for debugging name resolution.
func (r *Runner) Projects(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	if err := r.zoho.Authenticate(ctx); err != nil {
		return err
	}

	projects, err := r.zoho.ListProjects(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(projects, cmd.Bool("pretty"))
	}

	for _, p := range projects {
		if err := r.writePlain("%s\t%s\n", p.IDString, p.Name); err != nil {
			return err
		}
	}
	return nil
}

// SetupConfig writes a starter config file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("created config file", "path", path)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

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
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
