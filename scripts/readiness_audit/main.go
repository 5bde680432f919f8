package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/fleet-backoffice-api/pkg/backend"
	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	"github.com/noah-isme/fleet-backoffice-api/pkg/config"
)

const statusActive = "AC"

type finding struct {
	EntityType string
	ID         string
	Status     string
	Ready      bool
	Blocking   []string
	Critical   bool
}

type typeSummary struct {
	EntityType string
	Records    int
	Findings   []finding
	Error      error
	Duration   time.Duration
}

func main() {
	var (
		typesFlag string
		limit     int
		timeout   time.Duration
	)

	flag.StringVar(&typesFlag, "types", "", "Comma separated entity types to audit (default: every type with a checklist)")
	flag.IntVar(&limit, "limit", 0, "Maximum records per entity type (0 = all)")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall audit timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	catalog, err := checklist.DefaultCatalog()
	if err != nil {
		log.Fatalf("failed to load checklist catalog: %v", err)
	}

	types := catalog.EntityTypes()
	if typesFlag != "" {
		types = splitTypes(typesFlag)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := backend.NewClient(cfg.Backend, nil)
	var (
		summaries []typeSummary
		breaking  int
		optional  int
	)
	for _, entityType := range types {
		summary := auditType(ctx, client, catalog, entityType, limit, time.Now())
		for _, f := range summary.Findings {
			if f.Critical {
				breaking++
			} else {
				optional++
			}
		}
		if summary.Error != nil {
			breaking++
		}
		summaries = append(summaries, summary)
	}

	printReport(summaries)

	fmt.Printf("Active but not ready: %d, Ready but not active: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

type entityLister interface {
	ListEntities(ctx context.Context, entityType string, limit int) ([]checklist.Entity, error)
}

func auditType(ctx context.Context, client entityLister, catalog *checklist.Catalog, entityType string, limit int, now time.Time) typeSummary {
	summary := typeSummary{EntityType: entityType}
	tmpl, ok := catalog.Template(entityType)
	if !ok {
		summary.Error = fmt.Errorf("no checklist defined for %s", entityType)
		return summary
	}

	start := time.Now()
	entities, err := client.ListEntities(ctx, entityType, limit)
	summary.Duration = time.Since(start)
	if err != nil {
		summary.Error = fmt.Errorf("list %s: %w", entityType, err)
		return summary
	}
	summary.Records = len(entities)

	exceptions := catalog.Exceptions(entityType)
	for _, e := range entities {
		result := checklist.Evaluate(e, tmpl, exceptions, now)
		if f, mismatch := classify(e, result); mismatch {
			summary.Findings = append(summary.Findings, f)
		}
	}
	return summary
}

// classify flags records whose status disagrees with their readiness.
func classify(e checklist.Entity, result checklist.Result) (finding, bool) {
	f := finding{
		EntityType: e.Type,
		ID:         e.ID,
		Status:     e.Status,
		Ready:      result.Ready,
		Blocking:   result.Blocking(),
	}
	active := strings.EqualFold(e.Status, statusActive)
	switch {
	case active && !result.Ready:
		f.Critical = true
		return f, true
	case !active && result.Ready && e.Status != "":
		return f, true
	}
	return f, false
}

func splitTypes(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printReport(results []typeSummary) {
	fmt.Println("Readiness Audit Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if len(res.Findings) > 0 {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s (%d records, %s)\n", status, res.EntityType, res.Records, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		for _, f := range res.Findings {
			if f.Critical {
				fmt.Printf("  %s %s is %s but blocked by: %s\n", f.EntityType, f.ID, f.Status, strings.Join(f.Blocking, ", "))
			} else {
				fmt.Printf("  %s %s is ready but still %s\n", f.EntityType, f.ID, f.Status)
			}
		}
	}
}
