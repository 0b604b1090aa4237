package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/skinscope/internal/cli"
	"github.com/Veraticus/skinscope/internal/common"
	"github.com/Veraticus/skinscope/internal/diseaseinfo"
	"github.com/Veraticus/skinscope/internal/handoff"
	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/stager"
	"github.com/Veraticus/skinscope/internal/submission"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict FILE",
		Short: "Classify a skin lesion image",
		Long: `Upload an image to the classification service and print the
predicted condition. You must be signed in.`,
		Args: cobra.ExactArgs(1),
		RunE: runPredict,
	}
	cmd.Flags().Bool("json", false, "print the prediction as JSON")
	cmd.Flags().Bool("no-progress", false, "do not show the upload progress bar")
	return cmd
}

// predictionOutput is the --json shape.
type predictionOutput struct {
	Confidence  *float64 `json:"confidence,omitempty"`
	File        string   `json:"file"`
	Label       string   `json:"label"`
	Title       string   `json:"title"`
	Severity    string   `json:"severity"`
	RiskLevel   string   `json:"risk_level,omitempty"`
	Description string   `json:"description,omitempty"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Upload")
	defer interrupts.Stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if _, err := a.requireSession(ctx); err != nil {
		return err
	}

	staged, err := stageFile(args[0])
	if err != nil {
		return err
	}

	var opts []predict.Option
	if !jsonOut && !noProgress {
		opts = append(opts, predict.WithUploadProgress(func(total int64) io.Writer {
			return cli.NewUploadBar(os.Stderr, total, "Uploading "+staged.Name)
		}))
	}

	result, err := submission.New(a.predictor(opts...)).Do(ctx, staged)
	if err != nil {
		if interrupts.WasInterrupted() {
			return common.NewUserError("Upload cancelled", err)
		}
		return common.NewUserError(submission.Reason(err), err)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return writePredictionJSON(out, staged.Name, result)
	}
	fmt.Fprintln(out, renderPrediction(staged.Name, result))
	return nil
}

// stageFile validates and decodes path the same way the interactive client does.
func stageFile(path string) (stager.StagedImage, error) {
	candidate, err := stager.CandidateFromPath(strings.Trim(path, `"'`))
	if err != nil {
		return stager.StagedImage{}, common.NewUserError("Error reading file", err)
	}

	s := stager.New()
	defer s.Close()

	decode := s.Select(candidate)
	if decode != nil {
		s.Apply(decode.Run())
	}

	staged := s.Staged()
	if staged.Err != nil {
		return stager.StagedImage{}, common.NewUserError(stager.Message(staged.Err), staged.Err)
	}
	return staged, nil
}

func renderPrediction(name string, r *handoff.Result) string {
	label := r.Prediction.Label
	style := cli.SeverityStyle(string(diseaseinfo.SeverityFor(label)))

	lines := []string{
		cli.FormatField("File", name),
		cli.FormatField("Condition", style.Render(diseaseinfo.FormatLabel(label))),
	}
	if r.Prediction.HasConfidence() {
		lines = append(lines, cli.FormatField("Confidence", predict.FormatConfidence(*r.Prediction.Confidence)))
	}
	if entry, ok := diseaseinfo.Lookup(label); ok {
		if entry.RiskLevel != "" {
			lines = append(lines, cli.FormatField("Risk level", entry.RiskLevel))
		}
		lines = append(lines, "", entry.Description)
	}
	lines = append(lines, "", cli.SubtleStyle.Render(diseaseinfo.Disclaimer))

	return cli.RenderBox(cli.ScopeIcon+" Analysis Result", strings.Join(lines, "\n"))
}

func writePredictionJSON(w io.Writer, name string, r *handoff.Result) error {
	label := r.Prediction.Label
	out := predictionOutput{
		File:       name,
		Label:      label,
		Title:      diseaseinfo.FormatLabel(label),
		Severity:   string(diseaseinfo.SeverityFor(label)),
		Confidence: r.Prediction.Confidence,
	}
	if entry, ok := diseaseinfo.Lookup(label); ok {
		out.RiskLevel = entry.RiskLevel
		out.Description = entry.Description
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode prediction: %w", err)
	}
	return nil
}
