package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
)

var seedLayout string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill your Drafts canvas with sample notes",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedLayout, "layout", string(canvas.LayoutGrid), "arrangement applied after seeding")
}

type seedNote struct {
	title    string
	content  string
	image    string
	color    model.Color
	priority model.Priority
	dueIn    int
	tags     []string
}

var seedNotes = []seedNote{
	{
		title:   "Welcome to Plotta",
		content: "Drag notes around with the mouse.\nDouble click a note to edit it.",
		color:   model.ColorYellow,
	},
	{
		title:    "Groceries",
		content:  "- [ ] milk\n- [ ] eggs\n- [x] coffee",
		color:    model.ColorGreen,
		priority: model.PriorityLow,
		dueIn:    1,
		tags:     []string{"errands"},
	},
	{
		title:    "Quarterly review",
		content:  "Collect metrics and draft the summary.",
		color:    model.ColorRed,
		priority: model.PriorityHigh,
		dueIn:    5,
		tags:     []string{"work"},
	},
	{
		title:   "Book ideas",
		content: "A lighthouse keeper who collects lost letters.",
		color:   model.ColorPurple,
		tags:    []string{"ideas"},
	},
	{
		title: "Moodboard",
		image: "https://images.unsplash.com/photo-1500530855697-b586d89ba3ee",
		tags:  []string{"ideas"},
	},
	{
		title:    "Renew passport",
		color:    model.ColorOrange,
		priority: model.PriorityMedium,
		dueIn:    30,
		tags:     []string{"errands"},
	},
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	layout := canvas.Layout(seedLayout)
	if !layout.Valid() {
		return fmt.Errorf("unknown layout %q", seedLayout)
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

	tagIDs := make(map[string]string)
	for _, t := range board.Tags() {
		tagIDs[t.Name] = t.ID
	}

	today := canvas.Day(time.Now(), time.Local)
	for _, sn := range seedNotes {
		var draft model.NoteDraft
		if sn.image != "" {
			draft = board.Placer().NewImageDraft(e.project.ID, sn.title, sn.image)
		} else {
			draft = board.Placer().NewDraft(e.project.ID, sn.title, sn.content)
			draft.Color = sn.color
		}
		draft.Priority = sn.priority
		draft.CreatedBy = e.session.UserID
		if sn.dueIn > 0 {
			due := today.AddDate(0, 0, sn.dueIn)
			draft.DueDate = &due
		}
		n, err := board.Create(ctx, draft)
		if err != nil {
			return err
		}

		var ids []string
		for _, name := range sn.tags {
			id, ok := tagIDs[name]
			if !ok {
				tag, err := e.store.CreateTag(ctx, model.Tag{ProjectID: e.project.ID, Name: name})
				if err != nil {
					return err
				}
				id = tag.ID
				tagIDs[name] = id
			}
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			if err := board.SetNoteTags(ctx, n.ID, ids); err != nil {
				return err
			}
		}
		logger.Debug("seeded note", zap.String("id", n.ID), zap.String("title", n.Title))
	}

	if err := board.Arrange(ctx, layout, nil); err != nil {
		return err
	}

	fmt.Printf("Added %d notes to %s.\n", len(seedNotes), e.project.Name)
	return nil
}
