package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/complaint-assistant/internal/observability"
)

var (
	classifyProblem string
	classifyFile    string
	classifyJSON    bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a problem and draft a complaint without storing it",
	Long:  "Run the analysis and generation prompts on a problem description and print the resulting complaint package.",
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyProblem, "problem", "p", "", "Problem description")
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "Read the problem description from a file (- for stdin)")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the package as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	problem, err := readProblem(classifyProblem, classifyFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	service, gen, err := newComplaintService(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gen.Close() }()

	pkg, err := service.ClassifyAndGenerate(cmd.Context(), problem)
	if err != nil {
		return fmt.Errorf("failed to generate complaint: %w", err)
	}

	if classifyJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(pkg)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintComplaintPackage(pkg)
	return nil
}

// readProblem resolves the problem text from exactly one of --problem or --file.
func readProblem(problem, file string, stdin io.Reader) (string, error) {
	if problem != "" && file != "" {
		return "", fmt.Errorf("cannot use --problem with --file")
	}

	if file != "" {
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read problem file: %w", err)
		}
		problem = string(data)
	}

	problem = strings.TrimSpace(problem)
	if problem == "" {
		return "", fmt.Errorf("a problem description is required (use --problem or --file)")
	}
	return problem, nil
}
