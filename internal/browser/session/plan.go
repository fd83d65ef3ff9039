// internal/browser/session/plan.go
package session

import (
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/scalpel-probe/api/schemas"
	"github.com/xkilldash9x/scalpel-probe/internal/reporting"
)

// StepReport summarizes one executed plan step.
type StepReport struct {
	Step       int
	Extraction *schemas.ExtractionResult
	Files      []string
	Action     *schemas.PlanStep
	// TargetXPath locates the element Action names in the extracted page.
	TargetXPath string
}

// LoadPlan reads a JSON array of plan steps.
func LoadPlan(path string) ([]schemas.PlanStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	var steps []schemas.PlanStep
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", path, err)
	}
	return steps, nil
}

// Export extracts the current page and writes the step's artifacts.
func (s *Session) Export(ctx context.Context, step int, dumper *reporting.Dumper) (*StepReport, error) {
	out := s.cfg.Output()
	annotated := s.cfg.Probe().Annotate

	res, err := s.Extract(ctx, annotated)
	if err != nil {
		return nil, err
	}
	report := &StepReport{Step: step, Extraction: res}
	if dumper == nil {
		return report, nil
	}

	files, err := dumper.WriteElements(step, res.Elements)
	report.Files = files
	if err != nil {
		return report, err
	}
	if out.Screenshot {
		img, err := s.Screenshot(ctx)
		if err != nil {
			return report, err
		}
		path, err := dumper.WriteScreenshot(step, img)
		if err != nil {
			return report, err
		}
		report.Files = append(report.Files, path)
	}
	if out.Markdown {
		content, err := s.Markdown(ctx)
		if err != nil {
			return report, err
		}
		path, err := dumper.WriteMarkdown(step, content)
		if err != nil {
			return report, err
		}
		report.Files = append(report.Files, path)
	}
	if annotated && out.ClearOverlay {
		if err := s.ClearOverlay(ctx); err != nil {
			return report, err
		}
	}
	return report, nil
}

// RunPlan executes steps against the current page. Every step extracts and
// exports the page, then interacts with the element the step names; a final
// extraction records the page the plan ends on. Steps are paced by the
// configured interval.
func (s *Session) RunPlan(ctx context.Context, steps []schemas.PlanStep, dumper *reporting.Dumper) ([]StepReport, error) {
	limit := rate.Inf
	if interval := s.cfg.Plan().StepInterval; interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	reports := make([]StepReport, 0, len(steps)+1)
	for i := 0; i <= len(steps); i++ {
		if err := limiter.Wait(ctx); err != nil {
			return reports, err
		}
		report, err := s.Export(ctx, i, dumper)
		if report != nil {
			reports = append(reports, *report)
		}
		if err != nil {
			return reports, fmt.Errorf("step %d: %w", i, err)
		}
		if i == len(steps) {
			break
		}

		step := steps[i]
		current := &reports[len(reports)-1]
		current.Action = &step
		current.TargetXPath = s.targetXPath(step.ElementID)
		s.logger.Info("Executing plan step.",
			zap.Int("step", i),
			zap.Int("element_id", step.ElementID),
			zap.String("xpath", current.TargetXPath),
			zap.String("note", step.Note))
		if err := s.InteractByID(ctx, step.ElementID, step.Args); err != nil {
			return reports, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return reports, nil
}
