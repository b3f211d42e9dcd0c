package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pronounce-gateway/internal/cache"
	"pronounce-gateway/internal/markup"
	"pronounce-gateway/pkg/ttsclient"
)

type clipFlags struct {
	ipa          string
	phoneme      string
	partOfSpeech string
}

func (f *clipFlags) register(cmd *cobra.Command, withPOS bool) {
	cmd.Flags().StringVar(&f.ipa, "ipa", "", "IPA transcription of the word (required)")
	cmd.Flags().StringVar(&f.phoneme, "phoneme", "", "play a single phoneme of the transcription")
	if withPOS {
		cmd.Flags().StringVar(&f.partOfSpeech, "pos", "", "part of speech, for heteronyms")
	}
	_ = cmd.MarkFlagRequired("ipa")
}

func (f *clipFlags) params(word string) ttsclient.Params {
	return ttsclient.Params{
		Word:         word,
		IPA:          f.ipa,
		Phoneme:      f.phoneme,
		PartOfSpeech: f.partOfSpeech,
	}
}

func newSayCmd(opts *globalOptions) *cobra.Command {
	var (
		clip    clipFlags
		fresh   bool
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "say <word>",
		Short: "Fetch a pronunciation and play it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			defer s.close()

			p := clip.params(args[0])
			p.SkipCache = fresh

			if outPath != "" {
				res, err := s.client.Fetch(cmd.Context(), p)
				if err != nil {
					return describe(err)
				}
				if err := writeOut(outPath, res.Audio); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s, %s)\n", res.Key, res.Source, humanize.Bytes(uint64(len(res.Audio))))
				return nil
			}

			slot := ttsclient.NewSlot(&ttsclient.ExecPlayer{
				Command: s.cfg.Player.Command,
				Args:    s.cfg.Player.Args,
			})
			defer slot.Stop()

			res, err := slot.PlayFetched(cmd.Context(), s.client, p)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s)\n", res.Key, res.Source)
			return nil
		},
	}
	clip.register(cmd, true)
	cmd.Flags().BoolVar(&fresh, "fresh", false, "bypass both local and gateway caches")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the MP3 to a file (- for stdout) instead of playing it")
	return cmd
}

func newReportCmd(opts *globalOptions) *cobra.Command {
	var clip clipFlags
	cmd := &cobra.Command{
		Use:   "report <word>",
		Short: "Report a wrong pronunciation so it is synthesized again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			defer s.close()

			evicted, err := s.client.Report(cmd.Context(), clip.params(args[0]))
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reported. Dropped local copy %s.\n", evicted)
			return nil
		},
	}
	clip.register(cmd, false)
	return cmd
}

func newPronunciationsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pronunciations <word>",
		Short: "List the distinct pronunciations of a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.client.Pronunciations(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s", res.Word)
			if res.Heteronym {
				fmt.Fprint(out, " (heteronym)")
			}
			fmt.Fprintln(out)
			if res.Unresolved {
				fmt.Fprintln(out, "  no dictionary evidence; pass --ipa and --pos explicitly")
			}
			if res.Partial {
				fmt.Fprintln(out, "  dictionary lookup failed; list may be incomplete")
			}
			for _, g := range res.Groups {
				pos := g.PartOfSpeech
				if pos == "" {
					pos = "-"
				}
				ipa := g.IPA
				if ipa == "" {
					ipa = "?"
				}
				fmt.Fprintf(out, "  %-10s %s\n", pos, ipa)
			}
			return nil
		},
	}
}

func newCacheCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local audio store",
	}

	// withStore opens only the store; cache commands never touch the network.
	withStore := func(fn func(cmd *cobra.Command, st *ttsclient.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			return fn(cmd, st)
		}
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show local store statistics",
		RunE: withStore(func(cmd *cobra.Command, st *ttsclient.Store) error {
			stats, err := st.Stats()
			if err != nil {
				return err
			}
			oldest := "-"
			if !stats.Oldest.IsZero() {
				oldest = humanize.Time(stats.Oldest)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entries: %d\nSize:    %s\nOldest:  %s\nVersion: %s\n",
				stats.Entries, humanize.Bytes(uint64(stats.Bytes)), oldest, cache.VersionPrefix(markup.Version))
			return nil
		}),
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries",
		RunE: withStore(func(cmd *cobra.Command, st *ttsclient.Store) error {
			n, err := st.Prune()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", n)
			return nil
		}),
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove entries from older markup versions",
		RunE: withStore(func(cmd *cobra.Command, st *ttsclient.Store) error {
			n, err := st.PurgeStaleVersions(cache.VersionPrefix(markup.Version))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries from older versions.\n", n)
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry",
		RunE: withStore(func(cmd *cobra.Command, st *ttsclient.Store) error {
			if err := st.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All entries cleared.")
			return nil
		}),
	}

	cmd.AddCommand(statsCmd, pruneCmd, purgeCmd, clearCmd)
	return cmd
}

// describe turns gateway errors into a line a user can act on.
func describe(err error) error {
	var apiErr *ttsclient.APIError
	switch {
	case errors.Is(err, ttsclient.ErrRateLimited):
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, retry in %s", apiErr.RetryAfter.Round(time.Second))
		}
		return errors.New("rate limited, retry later")
	case errors.Is(err, ttsclient.ErrInvalidRequest):
		return fmt.Errorf("invalid request: %w", err)
	case errors.Is(err, ttsclient.ErrReportNotRecorded):
		return errors.New("the gateway could not record the report, try again")
	}
	return err
}

func writeOut(path string, audio []byte) error {
	var w io.Writer = os.Stdout
	if strings.TrimSpace(path) != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err := w.Write(audio)
	return err
}
