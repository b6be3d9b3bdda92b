package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/config"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/logging"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/orchestrator"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/provider"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/security"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/storage"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/tools"
)

// 宿主层故障只在这里（启动期）致命；运行起来之后同类故障都降级为
// 警告并继续。
// Host-layer faults are fatal only here, at startup; once the run is going
// the same class of faults degrades to warnings.
func main() {
	var (
		configPath    string
		workspaceRoot string
		bootstrapPath string
		maxSteps      int
		validateCmd   string
		verbose       bool
		noInput       bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON/JSONC")
	flag.StringVar(&workspaceRoot, "repo", "", "Repository root override")
	flag.StringVar(&bootstrapPath, "bootstrap", "", "Bootstrap instruction file override")
	flag.IntVar(&maxSteps, "steps", 0, "Step budget override")
	flag.StringVar(&validateCmd, "validate", "", "Validation command override")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&noInput, "no-input", false, "Disable interactive command approval")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("load config failed: %v", err)
	}
	if strings.TrimSpace(workspaceRoot) != "" {
		cfg.Runtime.WorkspaceRoot = workspaceRoot
	}
	if strings.TrimSpace(bootstrapPath) != "" {
		cfg.Runtime.BootstrapPath = bootstrapPath
	}
	if maxSteps > 0 {
		cfg.Runtime.MaxSteps = maxSteps
	}
	if strings.TrimSpace(validateCmd) != "" {
		cfg.Validation.Command = validateCmd
	}

	root := strings.TrimSpace(cfg.Runtime.WorkspaceRoot)
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			fatal("resolve cwd failed: %v", err)
		}
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		fatal("repository root %q is not a directory", root)
	}
	ws, err := security.NewWorkspace(root)
	if err != nil {
		fatal("init workspace failed: %v", err)
	}

	bootstrap := strings.TrimSpace(cfg.Runtime.BootstrapPath)
	if bootstrap == "" {
		bootstrap = filepath.Join(ws.Root(), "AI_START_HERE.md")
	}
	bootstrapText, err := os.ReadFile(bootstrap)
	if err != nil {
		fatal("read bootstrap file %q: %v", bootstrap, err)
	}

	artifacts, err := storage.NewManager(cfg.Storage.BaseDir)
	if err != nil {
		fatal("init storage failed: %v", err)
	}

	logger, closeLog, err := logging.Setup(artifacts.LogsDir(), verbose)
	if err != nil {
		fatal("init logging failed: %v", err)
	}
	defer func() { _ = closeLog() }()

	store, err := storage.NewSQLiteStore(artifacts.DatabasePath())
	if err != nil {
		// Archive is a convenience, not a requirement for the run itself.
		logger.Warn("run archive unavailable", "error", err)
		store = nil
	} else {
		defer func() { _ = store.Close() }()
	}

	allowlist := security.NewAllowlist(cfg.Safety.CommandAllowlist)
	toolbox := tools.NewToolbox(ws, allowlist, tools.Limits{
		ReadMaxChars:     cfg.Safety.ReadMaxChars,
		SearchMaxLines:   cfg.Safety.SearchMaxLines,
		OutputLimitBytes: cfg.Safety.OutputLimitBytes,
		CommandTimeoutMS: cfg.Safety.CommandTimeoutMS,
		SyntaxTimeoutMS:  cfg.Safety.SyntaxTimeoutMS,
		DiffMaxBytes:     cfg.Safety.DiffMaxBytes,
	})

	prov := provider.NewOpenAIProvider(provider.OpenAIConfig{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		Model:      cfg.Provider.Model,
		TimeoutMS:  cfg.Provider.TimeoutMS,
		MaxRetries: cfg.Provider.MaxRetries,
	})

	var approve orchestrator.ApproveFunc
	if !noInput {
		inputReader, inputErr := newLineInput(filepath.Join(cfg.Storage.BaseDir, "approve.history"))
		if inputErr != nil {
			logger.Warn("line editor unavailable, fallback to basic input", "error", inputErr)
		}
		defer func() { _ = inputReader.Close() }()
		approve = approvalPrompt(inputReader)
	}

	out := newRenderer()
	orch := orchestrator.New(cfg, prov, toolbox, artifacts, store, logger, approve,
		orchestrator.Callbacks{
			OnAssistant: out.Assistant,
			OnResult:    out.Result,
		})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("agent started",
		"workspace", ws.Root(),
		"model", prov.CurrentModel(),
		"max_steps", cfg.Runtime.MaxSteps,
		"validation", cfg.Validation.Command != "")

	summary, err := orch.Run(ctx, string(bootstrapText))
	if err != nil {
		logger.Error("run aborted", "error", err, "steps", summary.Steps)
		os.Exit(1)
	}

	logger.Info("run finished",
		"steps", summary.Steps,
		"mutations", summary.Mutations,
		"corrections", summary.Corrections,
		"halted", summary.Halted,
		"validation", summary.Validation)
	fmt.Printf("run finished: steps=%d mutations=%d corrections=%d halted=%v validation=%s\n",
		summary.Steps, summary.Mutations, summary.Corrections, summary.Halted, summary.Validation)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
