// cmd/policy-admin/main.go

// policy-admin is a small operations CLI: create policies, activate them
// (paraphrase + cohort send), and inspect acknowledgement state.
//
// Usage:
//
//	policy-admin create -text "..." [-department IT] [-workmode Remote]
//	policy-admin activate -policy 7
//	policy-admin status [-policy 7]
//	policy-admin override -policy 7 -employee 3 -status awaiting_response
//	policy-admin list
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/activation"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/cohort"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/config"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/database"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/linkcodec"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/notifier"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/paraphrase"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/store"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: policy-admin <create|activate|status|override|list> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var cfg *config.Config
	var err error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres ping failed", zap.Error(err))
	}

	st := store.New(pg.GetDB(), log)

	switch os.Args[1] {
	case "create":
		runCreate(ctx, st, os.Args[2:])
	case "activate":
		runActivate(ctx, cfg, st, log, os.Args[2:])
	case "status":
		runStatus(ctx, st, os.Args[2:])
	case "override":
		runOverride(ctx, st, os.Args[2:])
	case "list":
		runList(ctx, st)
	default:
		usage()
	}
}

func runCreate(ctx context.Context, st *store.Store, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	text := fs.String("text", "", "policy text (required)")
	department := fs.String("department", "", "target department")
	workMode := fs.String("workmode", "", "target work mode (Remote or Onsite)")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "create: -text is required")
		os.Exit(2)
	}
	if *workMode != "" && !models.ValidWorkMode(*workMode) {
		fmt.Fprintf(os.Stderr, "create: invalid work mode %q\n", *workMode)
		os.Exit(2)
	}

	id, err := st.CreatePolicy(ctx, *text, *department, models.WorkMode(*workMode))
	if err != nil {
		fmt.Fprintf(os.Stderr, "create: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created policy %d\n", id)
}

func runActivate(ctx context.Context, cfg *config.Config, st *store.Store, log logger.Logger, args []string) {
	fs := flag.NewFlagSet("activate", flag.ExitOnError)
	policyID := fs.Int64("policy", 0, "policy id (required)")
	fs.Parse(args)

	if *policyID <= 0 {
		fmt.Fprintln(os.Stderr, "activate: -policy is required")
		os.Exit(2)
	}

	var codec linkcodec.Codec = linkcodec.NewCodec()
	if cfg.Link.SigningKey != "" {
		codec = linkcodec.NewSigningCodec(codec, []byte(cfg.Link.SigningKey))
	}

	var transport notifier.Transport
	if cfg.Mail.Provider == "ses" {
		var err error
		transport, err = notifier.NewSESTransport(ctx, cfg.Mail)
		if err != nil {
			fmt.Fprintf(os.Stderr, "activate: %v\n", err)
			os.Exit(1)
		}
	} else {
		transport = notifier.NewSMTPTransport(cfg.Mail)
	}

	svc := activation.NewService(
		st,
		cohort.NewResolver(st, log),
		paraphrase.NewClient(cfg.GenAI, log),
		notifier.New(transport, codec, cfg.Server.BaseURL, cfg.Mail.MaxConcurrent, log, nil),
		log,
	)

	result, err := svc.Activate(ctx, *policyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "activate: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(result.Message)
}

func runStatus(ctx context.Context, st *store.Store, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	policyID := fs.Int64("policy", 0, "restrict to one policy")
	fs.Parse(args)

	var filter *int64
	if *policyID > 0 {
		filter = policyID
	}

	entries, err := st.ListAcknowledgements(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(entries)
}

func runOverride(ctx context.Context, st *store.Store, args []string) {
	fs := flag.NewFlagSet("override", flag.ExitOnError)
	policyID := fs.Int64("policy", 0, "policy id (required)")
	employeeID := fs.Int64("employee", 0, "employee id (required)")
	status := fs.String("status", "", "awaiting_response, acknowledged or declined (required)")
	fs.Parse(args)

	if *policyID <= 0 || *employeeID <= 0 {
		fmt.Fprintln(os.Stderr, "override: -policy and -employee are required")
		os.Exit(2)
	}
	if !models.ValidAckStatus(*status) {
		fmt.Fprintf(os.Stderr, "override: invalid status %q\n", *status)
		os.Exit(2)
	}

	ok, err := st.OverrideAcknowledgement(ctx, *policyID, *employeeID, models.AckStatus(*status))
	if err != nil {
		fmt.Fprintf(os.Stderr, "override: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "override: no acknowledgement entry for policy %d and employee %d\n", *policyID, *employeeID)
		os.Exit(1)
	}
	fmt.Printf("acknowledgement for policy %d, employee %d set to %s\n", *policyID, *employeeID, *status)
}

func runList(ctx context.Context, st *store.Store) {
	policies, err := st.ListPolicies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list: %v\n", err)
		os.Exit(1)
	}

	for _, p := range policies {
		target := p.Department
		if p.WorkMode != "" {
			if target != "" {
				target += " / "
			}
			target += string(p.WorkMode)
		}
		if target == "" {
			target = "-"
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", p.ID, p.Status, target, truncate(p.PolicyText, 60))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
