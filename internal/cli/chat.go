package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/interviewprep-dev/interviewprep/pkg/prep"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/ingest"
)

// chatOptions holds the chat command flags
type chatOptions struct {
	ConfigPath        string
	StudentRecord     string
	PersonalStatement string
	Difficulty        int
	Feedback          bool
}

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	opts := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the workflow interactively in the terminal",
		Long: `Analyze the documents and walk the preparation workflow in the
terminal: premium report actions on demand and a live mock interview.

Examples:
  interviewprep chat --student-record record.pdf --personal-statement statement.pdf
  interviewprep chat --student-record record.pdf --personal-statement statement.pdf --difficulty 8 --feedback=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&opts.StudentRecord, "student-record", "", "Path to the student record PDF")
	cmd.Flags().StringVar(&opts.PersonalStatement, "personal-statement", "", "Path to the personal statement PDF")
	cmd.Flags().IntVar(&opts.Difficulty, "difficulty", 0, "Interview difficulty 1-10 (default from config)")
	cmd.Flags().BoolVar(&opts.Feedback, "feedback", true, "Per-answer feedback during the mock interview")
	cmd.MarkFlagRequired("student-record")
	cmd.MarkFlagRequired("personal-statement")

	return cmd
}

func runChat(cmd *cobra.Command, opts *chatOptions) error {
	app, err := newApp(cmd, opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Difficulty == 0 {
		opts.Difficulty = app.Config.Interview.DefaultDifficulty
	}

	record, err := extractPDF(opts.StudentRecord)
	if err != nil {
		return err
	}
	statement, err := extractPDF(opts.PersonalStatement)
	if err != nil {
		return err
	}

	report, err := withSpinner("Analyzing documents...", func() (string, error) {
		return app.Orchestrator.UploadDocuments(cmd.Context(), record, statement)
	})
	if err != nil {
		return err
	}
	printReport("Initial analysis", report)

	return repl(cmd, app, opts)
}

func repl(cmd *cobra.Command, app *prep.App, opts *chatOptions) error {
	interviewer := color.New(color.FgCyan, color.Bold)
	helpText := `Commands:
  questions  extract additional deep-dive questions
  strategy   generate the comprehensive strategy report
  answers    generate model answers for the extracted questions
  sim        start the mock interview (answers are free text)
  end        end the mock interview and get the final report
  restart    discard everything and start over
  quit       exit`

	fmt.Println(helpText)
	scanner := bufio.NewScanner(os.Stdin)
	simulating := false

	for {
		if simulating {
			fmt.Print("you> ")
		} else {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		// During a simulation everything except the commands is an answer
		if simulating && input != "end" && input != "quit" && input != "restart" {
			reply, done, err := app.Orchestrator.SubmitTurn(cmd.Context(), input)
			if err != nil {
				printError(err)
				continue
			}
			if done {
				simulating = false
				printReport("Final interview report", reply)
				continue
			}
			interviewer.Print("interviewer> ")
			fmt.Println(reply)
			continue
		}

		switch input {
		case "questions":
			runAction(cmd, "Extracting questions...", app.Orchestrator.ExtractAdditionalQuestions, "Additional questions")
		case "strategy":
			runAction(cmd, "Writing strategy report...", app.Orchestrator.GenerateStrategyReport, "Strategy report")
		case "answers":
			runAction(cmd, "Writing model answers...", app.Orchestrator.GenerateModelAnswers, "Model answers")
		case "sim":
			question, err := withSpinner("Preparing the interviewer...", func() (string, error) {
				return app.Orchestrator.StartSimulation(cmd.Context(), opts.Difficulty, opts.Feedback)
			})
			if err != nil {
				printError(err)
				continue
			}
			simulating = true
			fmt.Printf("Mock interview started (difficulty %d). Say %q to finish.\n",
				opts.Difficulty, app.Config.Workflow.TerminateWord)
			interviewer.Print("interviewer> ")
			fmt.Println(question)
		case "end":
			report, err := withSpinner("Evaluating the interview...", func() (string, error) {
				return app.Orchestrator.EndSimulation(cmd.Context())
			})
			if err != nil {
				printError(err)
				continue
			}
			simulating = false
			printReport("Final interview report", report)
		case "restart":
			app.Orchestrator.Restart()
			simulating = false
			fmt.Println("Session restarted. Re-run chat to analyze new documents.")
			return nil
		case "quit":
			return nil
		default:
			fmt.Println(helpText)
		}
	}
}

func runAction(cmd *cobra.Command, message string, action func(ctx context.Context) (string, error), title string) {
	result, err := withSpinner(message, func() (string, error) {
		return action(cmd.Context())
	})
	if err != nil {
		printError(err)
		return
	}
	printReport(title, result)
}

func extractPDF(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, err := ingest.ExtractText(content)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

func withSpinner(message string, fn func() (string, error)) (string, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()
	return fn()
}

func printReport(title, body string) {
	color.New(color.FgGreen, color.Bold).Printf("\n== %s ==\n", title)
	fmt.Println(body)
	fmt.Println()
}

func printError(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
}
