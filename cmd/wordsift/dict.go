package wordsift

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/dict"
	"github.com/wordsift/wordsift/internal/store"
)

var (
	flagAllow bool
	flagTags  []string
)

func init() {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage the persistent term store",
	}

	add := &cobra.Command{
		Use:   "add <term>...",
		Short: "Add terms to the deny (or --allow) list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(st *store.Store) error {
				added := 0
				for _, t := range args {
					ok, err := st.AddTerm(t, partition())
					if err != nil {
						return err
					}
					if ok {
						added++
					}
					if len(flagTags) > 0 {
						if err := st.SetTags(t, flagTags); err != nil {
							return err
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d term(s) to %s.\n", added, partition())
				return nil
			})
		},
	}
	add.Flags().StringSliceVar(&flagTags, "tag", nil, "tags to attach to the added terms")

	remove := &cobra.Command{
		Use:   "remove <term>...",
		Short: "Remove terms from the deny (or --allow) list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(st *store.Store) error {
				removed := 0
				for _, t := range args {
					ok, err := st.RemoveTerm(t, partition())
					if err != nil {
						return err
					}
					if ok {
						removed++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d term(s) from %s.\n", removed, partition())
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(st *store.Store) error {
				terms, err := st.List(partition())
				if err != nil {
					return err
				}
				for _, t := range terms {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			})
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import word lists or YAML dictionary documents into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(st *store.Store) error {
				n := 0
				for _, p := range args {
					src := dict.SourceForPath(p)
					deny, allow, err := src.Terms(cmd.Context())
					if err != nil {
						return err
					}
					if flagAllow {
						allow, deny = append(allow, deny...), nil
					}
					for _, part := range []struct {
						terms []string
						p     checkers.Partition
					}{{deny, checkers.Deny}, {allow, checkers.Allow}} {
						for _, t := range part.terms {
							ok, err := st.AddTerm(t, part.p)
							if err != nil {
								return err
							}
							if ok {
								n++
							}
						}
					}
					if ts, ok := src.(dict.TagSource); ok {
						tags, err := ts.Tags(cmd.Context())
						if err != nil {
							return err
						}
						for w, t := range tags {
							if err := st.SetTags(w, t); err != nil {
								return err
							}
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d term(s).\n", n)
				return nil
			})
		},
	}

	encode := &cobra.Command{
		Use:   "encode <file>",
		Short: "Print a word list as base64 for deny_b64/allow_b64",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deny, _, err := dict.WordList{Path: args[0]}.Terms(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dict.EncodeList(deny))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&flagAllow, "allow", false, "operate on the allow list")
	cmd.AddCommand(add, remove, list, imp, encode)
	rootCmd.AddCommand(cmd)
}

func partition() checkers.Partition {
	if flagAllow {
		return checkers.Allow
	}
	return checkers.Deny
}

// withStore opens the configured store, creating it when missing, and runs fn.
func withStore(cmd *cobra.Command, fn func(st *store.Store) error) error {
	s, err := loadSettings(".")
	if err != nil {
		return err
	}
	opts, err := s.options()
	if err != nil {
		return err
	}
	path := s.storePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "creating term store %s\n", path)
	}
	st, err := store.Open(path, opts.Normalize)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return fn(st)
}
