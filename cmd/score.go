package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/results"
	"github.com/spigell/resume-matcher/internal/uploads"
)

const (
	PromptExportArchive = "Export top resumes to a zip archive"
	PromptResultsToFile = "Dump results to file"
	PromptExit          = "Exit"

	formatJSON = "json"
	formatYAML = "yaml"

	// cliSession keys batches scored from the shell in the result store.
	cliSession = "cli"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptExportArchive, PromptResultsToFile, PromptExit},
}

var scoreCmd = &cobra.Command{
	Use:   "score [flags] RESUME...",
	Short: "Score resume files against a job description",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		score(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("jd", "", "job description file (pdf, docx, html, txt, md)")
	scoreCmd.Flags().String("jd-text", "", "job description text, used when --jd is empty or yields no text")
	scoreCmd.Flags().StringP("method", "m", "", "scoring method: llm, cosine, hybrid or weighted (default scoring.default-method)")
	scoreCmd.Flags().StringP("format", "f", formatJSON, "results output format: json or yaml")
	scoreCmd.Flags().BoolP("auto-approve", "y", false, "print results and exit without the interactive menu")
}

func score(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logger.WithOutput("stderr"), logger.WithService(app))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	format, _ := cmd.Flags().GetString("format")
	if format != formatJSON && format != formatYAML {
		logger.Fatal("unsupported output format", zap.String("format", format))
	}

	method, _ := cmd.Flags().GetString("method")
	if method == "" {
		method = config.Scoring.DefaultMethod
	}

	extractor := extract.New(nil)

	jdFile, _ := cmd.Flags().GetString("jd")
	jdText, _ := cmd.Flags().GetString("jd-text")
	jd, err := readJobDescription(ctx, extractor, jdFile, jdText)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}

	pipeline, err := newPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the match pipeline", zap.Error(err))
	}

	logger.Info("scoring resumes", zap.Int("count", len(args)), zap.String("method", method))

	batch, err := pipeline.Run(ctx, jd, readDocuments(ctx, extractor, args), method)
	if err != nil {
		logger.Fatal("scoring interrupted", zap.Error(err))
	}

	store, err := results.Open(ctx, config.Store.Driver, config.Store.DSN)
	if err != nil {
		logger.Fatal("opening the result store", zap.Error(err))
	}
	defer store.Close()

	if err := store.Replace(ctx, cliSession, batch.Results); err != nil {
		logger.Warn("saving results", zap.Error(err))
	}

	if err := writeResults(os.Stdout, batch.Results, format); err != nil {
		logger.Fatal("printing results", zap.Error(err))
	}

	if approve, _ := cmd.Flags().GetBool("auto-approve"); approve {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, batch.Results, format); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, set results.Set, format string) error {
	switch action {
	case PromptExportArchive:
		n, name, err := askArchive(len(set))
		if err != nil {
			return err
		}
		added, err := exportArchive(name, set, n)
		if err != nil {
			return fmt.Errorf("export archive: %w", err)
		}
		logger.Info("archive written", zap.String("filename", name), zap.Int("files", added))
		return nil
	case PromptResultsToFile:
		filename, err := dumpToTmpFile(set, format)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func askArchive(total int) (int, string, error) {
	countPrompt := promptui.Prompt{
		Label:   "How many top resumes",
		Default: strconv.Itoa(min(total, 5)),
		Validate: func(in string) error {
			n, err := strconv.Atoi(strings.TrimSpace(in))
			if err != nil || n < 1 {
				return errors.New("enter a whole number of at least 1")
			}
			return nil
		},
	}
	raw, err := countPrompt.Run()
	if err != nil {
		return 0, "", err
	}
	n, _ := strconv.Atoi(strings.TrimSpace(raw))

	namePrompt := promptui.Prompt{Label: "Archive name", Default: uploads.DefaultArchiveName}
	name, err := namePrompt.Run()
	if err != nil {
		return 0, "", err
	}

	return n, uploads.ArchiveName(name), nil
}

func readJobDescription(ctx context.Context, extractor *extract.Extractor, file, text string) (string, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return "", fmt.Errorf("open job description: %w", err)
		}
		defer f.Close()

		jd, err := extractor.Extract(ctx, file, f)
		if err != nil {
			return "", err
		}
		if jd = strings.TrimSpace(jd); jd != "" {
			return jd, nil
		}
	}

	if text = strings.TrimSpace(text); text != "" {
		return text, nil
	}

	return "", errors.New("Please upload or paste a job description.")
}

// readDocuments extracts every resume; failures travel on the document.
func readDocuments(ctx context.Context, extractor *extract.Extractor, paths []string) []matching.Document {
	docs := make([]matching.Document, 0, len(paths))
	for _, path := range paths {
		doc := matching.Document{Filename: filepath.Base(path), Path: path}

		f, err := os.Open(path)
		if err != nil {
			doc.Err = err
			docs = append(docs, doc)
			continue
		}
		doc.Text, doc.Err = extractor.Extract(ctx, path, f)
		f.Close()

		docs = append(docs, doc)
	}
	return docs
}

func writeResults(w io.Writer, set results.Set, format string) error {
	if set == nil {
		set = results.Set{}
	}

	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(set); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	}
}

func dumpToTmpFile(set results.Set, format string) (string, error) {
	f, err := os.CreateTemp("", app+"-results-*."+format)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := writeResults(f, set, format); err != nil {
		return "", err
	}
	return f.Name(), f.Close()
}

func exportArchive(name string, set results.Set, n int) (int, error) {
	f, err := os.Create(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	added, err := uploads.Archive(f, set, n)
	if err != nil {
		return added, err
	}
	return added, f.Close()
}
