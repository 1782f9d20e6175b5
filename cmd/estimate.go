package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/salary-intel/internal/engine"
	"github.com/spigell/salary-intel/internal/intel"
)

const (
	OutputJSON  = "json"
	OutputTable = "table"
)

var errInvalidResult = errors.New("result failed schema validation")

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Generate salary intelligence for one job posting",
	Example: `  salary-intel estimate --title "Senior Software Engineer" --location "Austin, TX" --salary "$120k - $150k"
  salary-intel estimate -i --output table`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return estimate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	addEstimateFlags(estimateCmd)
}

func addEstimateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "job title as posted")
	cmd.Flags().StringP("location", "l", "", "free-form location, e.g. \"Berlin, Germany\" or \"Remote\"")
	cmd.Flags().Float64P("experience", "e", 0, "years of experience")
	cmd.Flags().StringP("salary", "s", "", "salary text as posted, e.g. \"€60k - €75k\"")
	cmd.Flags().StringP("currency", "c", "", "ISO currency assumed when the salary text has none")
	cmd.Flags().StringP("work-mode", "w", "", "onsite, hybrid, remote_country or remote_global")
	cmd.Flags().Int("llm-calls", 1, "computation budget: llm calls")
	cmd.Flags().String("tool-calls", "<=10", "computation budget: tool calls")
	cmd.Flags().Bool("early-stop", false, "computation budget: early stop")
	cmd.Flags().BoolP("interactive", "i", false, "prompt for missing title, location and salary")
	cmd.Flags().StringP("output", "o", OutputJSON, "output format: json or table")
}

func estimate(cmd *cobra.Command) error {
	ctx := context.Background()
	flags := cmd.Flags()

	output, _ := flags.GetString("output")
	if output != OutputJSON && output != OutputTable {
		return fmt.Errorf("invalid output %q: use %s or %s", output, OutputJSON, OutputTable)
	}

	logger, config := bootstrap()
	defer logger.Sync()

	req, budget := requestFromFlags(cmd)

	if interactive, _ := flags.GetBool("interactive"); interactive {
		if err := promptMissing(&req); err != nil {
			return err
		}
	}

	e, cleanup, err := newEngine(config, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}
	defer cleanup()

	res, err := e.Generate(ctx, req, budget)
	if err != nil {
		if engine.IsValidation(err) {
			return err
		}
		logger.Fatal("generating salary intelligence", zap.Error(err))
	}

	switch output {
	case OutputTable:
		renderResult(res)
	default:
		pretty, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(pretty))
	}

	if !res.SchemaValid {
		return fmt.Errorf("%w: %s", errInvalidResult, strings.Join(res.ValidationErrors, "; "))
	}
	return nil
}

func requestFromFlags(cmd *cobra.Command) (intel.Request, intel.ComputationBudget) {
	flags := cmd.Flags()

	var req intel.Request
	req.JobTitle, _ = flags.GetString("title")
	req.Location, _ = flags.GetString("location")
	req.SalaryInfo, _ = flags.GetString("salary")
	req.Currency, _ = flags.GetString("currency")
	mode, _ := flags.GetString("work-mode")
	req.WorkMode = intel.WorkMode(mode)

	if flags.Changed("experience") {
		years, _ := flags.GetFloat64("experience")
		req.ExperienceYears = &years
	}

	var budget intel.ComputationBudget
	budget.LLMCalls, _ = flags.GetInt("llm-calls")
	budget.ToolCalls, _ = flags.GetString("tool-calls")
	budget.EarlyStop, _ = flags.GetBool("early-stop")

	return req, budget
}

var workModes = []string{
	string(intel.WorkModeOnsite),
	string(intel.WorkModeHybrid),
	string(intel.WorkModeRemoteCountry),
	string(intel.WorkModeRemoteGlobal),
}

// promptMissing asks only for the fields the flags left empty.
func promptMissing(req *intel.Request) error {
	if strings.TrimSpace(req.JobTitle) == "" {
		title := promptui.Prompt{
			Label: "Job title",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("job title cannot be empty")
				}
				return nil
			},
		}
		v, err := title.Run()
		if err != nil {
			return err
		}
		req.JobTitle = v
	}

	if strings.TrimSpace(req.Location) == "" {
		v, err := (&promptui.Prompt{Label: "Location (empty for global)"}).Run()
		if err != nil {
			return err
		}
		req.Location = v
	}

	if strings.TrimSpace(req.SalaryInfo) == "" {
		v, err := (&promptui.Prompt{Label: "Salary as posted (empty if not listed)"}).Run()
		if err != nil {
			return err
		}
		req.SalaryInfo = v
	}

	if req.WorkMode == "" {
		modePrompt := promptui.Select{
			Label: "Work mode",
			Items: workModes,
		}
		_, v, err := modePrompt.Run()
		if err != nil {
			return err
		}
		req.WorkMode = intel.WorkMode(v)
	}

	return nil
}
