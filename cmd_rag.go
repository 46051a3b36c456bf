package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weathernews-agent/server/internal/rag"
)

var showContext bool

var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "Question answering over an indexed document collection",
}

var ragAskCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rdb, err := openRedis(cfg)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
		}

		stack, err := newRAG(cmd.Context(), cfg, rdb)
		if err != nil {
			return err
		}

		ans, err := stack.pipeline.Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Expanded query for search: %s\n\n", ans.ExpandedQuery)
		if showContext {
			for _, d := range ans.Documents {
				fmt.Fprintf(out, "[%s] distance=%.4f\n%s\n\n", d.ID, d.Distance, d.Content)
			}
		}
		fmt.Fprintln(out, ans.Text)
		return nil
	},
}

var ragIngestCmd = &cobra.Command{
	Use:   "ingest <files...>",
	Short: "Split text files into paragraphs and index them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rdb, err := openRedis(cfg)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
		}

		stack, err := newRAG(cmd.Context(), cfg, rdb)
		if err != nil {
			return err
		}

		total := 0
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			n, err := rag.Ingest(cmd.Context(), stack.docs, stack.store, filepath.Base(path), f)
			_ = f.Close()
			if err != nil {
				return err
			}
			total += n
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d passages from %d file(s).\n", total, len(args))
		return nil
	},
}

func init() {
	ragAskCmd.Flags().BoolVar(&showContext, "show-context", false, "print the retrieved passages")
	ragCmd.AddCommand(ragAskCmd, ragIngestCmd)
	rootCmd.AddCommand(ragCmd)
}
