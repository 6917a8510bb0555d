package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/config"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	logpkg "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/logger"
	ats "github.com/muhammadasad149/Applicant-Tracking-System--ATS/pkg/sdk"
)

var rankCmd = &cobra.Command{
	Use:   "rank --jd FILE [--top N] CV...",
	Short: "Rank CV files against a job description in-process",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jd, _ := cmd.Flags().GetString("jd")
		top, _ := cmd.Flags().GetInt("top")
		quiet, _ := cmd.Flags().GetBool("quiet")
		return rank(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), jd, args, top, quiet)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("jd", "", "job description file (.pdf or .txt)")
	rankCmd.Flags().IntP("top", "n", 5, "number of candidates to show")
	rankCmd.Flags().BoolP("quiet", "q", false, "do not print progress")
	_ = rankCmd.MarkFlagRequired("jd")
}

func rank(ctx context.Context, stdout, stderr io.Writer, jdPath string, cvPaths []string, top int, quiet bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logpkg.NewLogger("cli", logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	opts := []ats.Option{
		ats.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))),
	}
	// Without --config the local TF-IDF vectorizer is used.
	if cfgFile != "" {
		cfg, err := loadConfig(config.GetEnv())
		if err != nil {
			return err
		}
		if cfg.Embedding.Vectorizer.Provider != config.ProviderTFIDF {
			emb, err := buildEmbedder(ctx, cfg, nil, logger)
			if err != nil {
				return fmt.Errorf("build embedder: %w", err)
			}
			opts = append(opts, ats.WithEmbedder(sdkEmbedder{inner: emb}))
		}
	}

	client, err := ats.New(opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	jd, err := readFile(jdPath)
	if err != nil {
		return err
	}
	cvs := make([]ats.File, 0, len(cvPaths))
	for _, p := range cvPaths {
		f, err := readFile(p)
		if err != nil {
			logger.Warn("Skipping unreadable CV", zap.String("path", p), zap.Error(err))
			continue
		}
		cvs = append(cvs, f)
	}

	req := ats.Request{JobDescription: jd, CVs: cvs, TopN: top}
	if !quiet {
		req.OnProgress = func(p int) { fmt.Fprintf(stderr, "\rProcessing CVs: %3d%%", p) }
	}

	res, err := client.Rank(ctx, req)
	if !quiet {
		fmt.Fprintln(stderr)
	}
	if err != nil {
		if reason := ats.FailureReason(err); reason != "" {
			return errors.New(reason)
		}
		return err //nolint:wrapcheck // already prefixed by the sdk
	}

	for _, name := range res.Skipped {
		fmt.Fprintf(stderr, "skipped %s: unsupported format\n", name)
	}
	return printMatches(stdout, res.Matches)
}

func printMatches(w io.Writer, matches []ats.Match) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCV\tSCORE")
	for _, m := range matches {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Rank, m.Filename, m.FormattedScore())
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

func readFile(path string) (ats.File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ats.File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ats.File{Name: filepath.Base(path), Data: data}, nil
}

// sdkEmbedder exposes the internal embedder chain through the SDK interfaces.
type sdkEmbedder struct {
	inner domain.BatchEmbedder
}

func (e sdkEmbedder) Embed(ctx context.Context, text string) (ats.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return ats.EmbeddingResult{}, err
	}
	if len(res.Embeddings) != 1 {
		return ats.EmbeddingResult{}, fmt.Errorf("expected 1 embedding, got %d: %w",
			len(res.Embeddings), domain.ErrEmbeddingProviderError)
	}
	return ats.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (e sdkEmbedder) BatchEmbed(ctx context.Context, texts []string) (ats.BatchEmbeddingResult, error) {
	res, err := e.inner.BatchEmbed(ctx, texts)
	if err != nil {
		return ats.BatchEmbeddingResult{}, err //nolint:wrapcheck // pass-through adapter
	}
	return ats.BatchEmbeddingResult{
		Embeddings:   res.Embeddings,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}
