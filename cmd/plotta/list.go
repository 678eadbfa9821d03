package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

var (
	listJSON bool
	listView string
	listTags []string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the notes of your Drafts canvas",
	Long: `Lists the notes of the default project in stacking order, bottom first.

The view and tag filters behave like the canvas filters: --view picks a
time window and each --tag widens the tag selection.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print notes as JSON")
	listCmd.Flags().StringVar(&listView, "view", string(model.ViewAll), "view mode: all, today, week, snoozed or later")
	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "only notes with this tag name (repeatable)")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pref := model.DefaultViewPreference()
	pref.ViewMode = model.ViewMode(listView)
	if !pref.ViewMode.Valid() {
		return fmt.Errorf("unknown view %q", listView)
	}

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	board := e.newBoard()
	if err := board.Load(ctx, e.project.ID); err != nil {
		return err
	}

	tagNames := make(map[string]string)
	for _, t := range board.Tags() {
		tagNames[t.ID] = t.Name
		for _, want := range listTags {
			if strings.EqualFold(t.Name, want) {
				pref.SelectedTagIDs = append(pref.SelectedTagIDs, t.ID)
			}
		}
	}
	if len(listTags) > 0 && len(pref.SelectedTagIDs) == 0 {
		return fmt.Errorf("no tag named %s", strings.Join(listTags, ", "))
	}

	notes := board.View(pref, time.Now())
	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(notes)
	}

	if len(notes) == 0 {
		fmt.Println("No notes.")
		return nil
	}

	noteTags := board.NoteTags()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(theme.DimmedStyle).
		Headers("TITLE", "COLOR", "PRIORITY", "DUE", "POSITION", "TAGS")
	for _, n := range notes {
		var tags []string
		for _, id := range noteTags[n.ID] {
			tags = append(tags, tagNames[id])
		}
		due := ""
		if n.DueDate != nil {
			due = n.DueDate.Format("2006-01-02")
		}
		title := n.Title
		if title == "" {
			title = "Untitled"
		}
		t.Row(
			title,
			string(n.Color),
			string(n.Priority),
			due,
			fmt.Sprintf("%.0f,%.0f", n.PositionX, n.PositionY),
			strings.Join(tags, " "),
		)
	}
	fmt.Println(t.Render())
	return nil
}
