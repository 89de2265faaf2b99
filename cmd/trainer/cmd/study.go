package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vocabtrainer/backend/internal/models"
	"github.com/vocabtrainer/backend/internal/session"
	"github.com/vocabtrainer/backend/internal/trainer"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Start an interactive study session",
	Long: `Show due review cards first, then new cards up to the daily limit.

Press enter to reveal a card, then grade it with 0-3 or again/hard/good/easy.
Other inputs:
  /<word>    jump to a word of the catalog
  :stats     show progress
  :history   show the latest grades
  :quit      save and leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(app)
		return runStudy(cmd.Context(), app, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// runStudy drives the session from line-based input until the input ends, the learner
// quits or no card is left
func runStudy(ctx context.Context, app *trainer.App, in io.Reader, out io.Writer) error {
	sess := app.Session()
	scanner := bufio.NewScanner(in)
	printNotices(out, app)

	displayed := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		card, err := sess.Next()
		if errors.Is(err, models.ErrNoCard) {
			fmt.Fprintln(out, "Nothing left to study right now.")
			printStats(out, sess.Stats())
			return nil
		}
		if err != nil {
			return err
		}

		if sess.State() == session.StateShowing && card.Definition.Word != displayed {
			printFront(out, card)
			displayed = card.Definition.Word
		}
		if sess.State() == session.StateRevealed {
			fmt.Fprint(out, "grade [0 again, 1 hard, 2 good, 3 easy]> ")
		} else {
			fmt.Fprint(out, "[enter] reveal> ")
		}

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == ":quit" || line == ":q":
			return nil
		case line == ":stats":
			printStats(out, sess.Stats())
		case line == ":history":
			printHistory(out, sess.RecentHistory())
		case strings.HasPrefix(line, "/"):
			jumped, err := sess.Jump(strings.TrimPrefix(line, "/"))
			if err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			printFront(out, jumped)
			displayed = jumped.Definition.Word
		case sess.State() == session.StateShowing:
			audio, err := sess.Reveal()
			if err != nil {
				return err
			}
			printBack(out, card, audio)
		default:
			grade, err := models.ParseGrade(line)
			if err != nil {
				fmt.Fprintln(out, "enter 0-3 or again, hard, good, easy")
				continue
			}
			result, err := sess.Grade(grade)
			if errors.Is(err, models.ErrLoading) {
				fmt.Fprintln(out, "progress is still loading, grade again in a moment")
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s, next in %d day(s)\n", result.Word, grade, result.Record.Interval)
			displayed = ""
		}
		printNotices(out, app)
	}
}

func printFront(out io.Writer, card session.Card) {
	def := card.Definition
	fmt.Fprintf(out, "\n%s", def.Word)
	if def.Level != "" {
		fmt.Fprintf(out, " [%s]", def.Level)
	}
	if len(def.PartsOfSpeech) > 0 {
		fmt.Fprintf(out, " (%s)", strings.Join(def.PartsOfSpeech, ", "))
	}
	fmt.Fprintf(out, " - %s card\n", card.Kind)
}

func printBack(out io.Writer, card session.Card, audio string) {
	for i, sense := range card.Definition.Senses() {
		fmt.Fprintf(out, "  %d. %s\n", i+1, sense)
	}
	if card.Definition.Source != "" {
		fmt.Fprintf(out, "  source: %s\n", card.Definition.Source)
	}
	for _, url := range card.Definition.ReferenceURLs {
		fmt.Fprintf(out, "  see: %s\n", url)
	}
	if audio != "" {
		fmt.Fprintf(out, "  audio: %s\n", audio)
	}
}

func printNotices(out io.Writer, app *trainer.App) {
	for _, n := range app.TakeNotices() {
		fmt.Fprintf(out, "! %s\n", n.Message)
	}
}
