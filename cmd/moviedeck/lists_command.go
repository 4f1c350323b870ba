package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/moviedeck/internal/config"
	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/store"
)

func newListsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Print the saved wishlist, seen list and custom lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				lists, ok := st.LoadLists()
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "No saved lists yet")
					return nil
				}
				printLists(cmd.OutOrStdout(), lists)
				return nil
			})
		},
	}
}

// printLists shows movie ids only; titles live in the session state, not on disk
func printLists(out io.Writer, lists domain.SavedLists) {
	rows := [][]string{
		{"Wishlist", strconv.Itoa(len(lists.Wishlist)), joinIDs(lists.Wishlist)},
		{"Seen", strconv.Itoa(len(lists.SeenList)), joinIDs(lists.SeenList)},
	}
	for _, cl := range lists.Custom {
		rows = append(rows, []string{cl.Name, strconv.Itoa(len(cl.Movies)), joinIDs(cl.Movies)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"List", "Movies", "IDs"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	))
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
