package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ecfr-dashboard/internal/dashboard"
	"ecfr-dashboard/internal/metrics"
	"ecfr-dashboard/internal/output"
)

func newTitlesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "titles",
		Short: "List every CFR title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			titles, err := a.client.Titles(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return a.printer.JSON(titles)
			}
			t := output.NewTable(a.printer.Out(), "Title", "Name", "Latest amended", "Up to date as of")
			for _, title := range titles {
				name := title.Name
				if title.Reserved {
					name += " [reserved]"
				}
				t.AddRow(strconv.Itoa(title.Number), name, title.LatestAmendedOn, title.UpToDateAsOf)
			}
			if t.Len() == 0 {
				a.printer.Warning("upstream returned no titles")
				return nil
			}
			return t.Render()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newStructureCmd(a *app) *cobra.Command {
	var title, date string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Count chapters, parts, sections, subparts and appendices of a title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, err := a.selection(cmd.Context(), title, date, dashboard.ViewTitleStructure)
			if err != nil {
				return err
			}
			s, err := a.loader(nil).Structure(cmd.Context(), sel.Title, sel.Date)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printer.JSON(s)
			}
			a.printer.Header(fmt.Sprintf("Title %s structure as of %s", sel.Title, sel.Date))
			t := output.NewTable(a.printer.Out(), "Level", "Count")
			for _, l := range s.Levels {
				t.AddRow(l.Level, strconv.Itoa(l.Count))
			}
			if err := t.Render(); err != nil {
				return err
			}
			a.printer.Info("Total items: %d  Depth: %d  Sections per part: %.1f", s.TotalItems, s.Depth, s.SectionsPerPart)
			a.printer.Info("Checksum: %s", s.Checksum)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "CFR title number (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "issue date YYYY-MM-DD (default: latest amendment of the first title)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newWordCountCmd(a *app) *cobra.Command {
	var title, date string
	var perSection int
	var fromLabels, asJSON bool
	cmd := &cobra.Command{
		Use:   "wordcount",
		Short: "Estimate words per chapter of a title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if perSection < 0 {
				return fmt.Errorf("--words-per-section must not be negative")
			}
			if fromLabels && perSection > 0 {
				return fmt.Errorf("--from-labels and --words-per-section are mutually exclusive")
			}
			sel, err := a.selection(cmd.Context(), title, date, dashboard.ViewWordCount)
			if err != nil {
				return err
			}
			var est metrics.SectionEstimator
			switch {
			case fromLabels:
				est = metrics.LabelSectionEstimator{}
			case perSection > 0:
				est = metrics.FixedSectionEstimator(perSection)
			}
			wc, err := a.loader(est).WordCount(cmd.Context(), sel.Title, sel.Date)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printer.JSON(wc)
			}
			a.printer.Header(fmt.Sprintf("Title %s estimated words as of %s", sel.Title, sel.Date))
			t := output.NewTable(a.printer.Out(), "Chapter", "Sections", "Words")
			for _, c := range wc.Chapters {
				t.AddRow(c.Chapter, strconv.Itoa(sectionsFor(wc, c.Chapter)), strconv.Itoa(c.WordCount))
			}
			if err := t.Render(); err != nil {
				return err
			}
			a.printer.Info("Total: %d words in %d sections (%d per section, about %d minutes to read)",
				wc.TotalWords, wc.TotalSections, wc.AvgWordsPerSection, wc.ReadingMinutes)
			for _, s := range wc.Distribution {
				a.printer.Info("  %s: %d", s.Name, s.Value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "CFR title number (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "issue date YYYY-MM-DD (default: latest amendment of the first title)")
	cmd.Flags().IntVar(&perSection, "words-per-section", 0, "fixed words per section (default: random 450-599 per chapter)")
	cmd.Flags().BoolVar(&fromLabels, "from-labels", false, "count the words of section headings instead of estimating")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func sectionsFor(wc metrics.WordCounts, row string) int {
	const prefix = "Chapter "
	if len(row) > len(prefix) {
		return wc.SectionsByChapter[row[len(prefix):]]
	}
	return 0
}

func newAmendmentsCmd(a *app) *cobra.Command {
	var title string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "amendments",
		Short: "Show monthly amendments of a title and their recent trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, err := a.selection(cmd.Context(), title, "", dashboard.ViewHistoricalChanges)
			if err != nil {
				return err
			}
			h, err := a.loader(nil).Amendments(cmd.Context(), sel.Title)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printer.JSON(h)
			}
			a.printer.Header(fmt.Sprintf("Title %s amendments", sel.Title))
			if len(h.Months) == 0 {
				a.printer.Warning("no amendment history for title %s", sel.Title)
				return nil
			}
			t := output.NewTable(a.printer.Out(), "Month", "Amendments")
			for _, m := range h.Months {
				t.AddRow(m.Date, strconv.Itoa(m.Amendments))
			}
			if err := t.Render(); err != nil {
				return err
			}
			a.printer.Info("Trend: %s", a.printer.TrendVerdict(h.Trend))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "CFR title number (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newAgenciesCmd(a *app) *cobra.Command {
	var title string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "agencies",
		Short: "Rank the agencies referencing a title by estimated words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, err := a.selection(cmd.Context(), title, "", dashboard.ViewAgencyMetrics)
			if err != nil {
				return err
			}
			ranked, err := a.loader(nil).Agencies(cmd.Context(), sel.Title)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printer.JSON(ranked)
			}
			a.printer.Header(fmt.Sprintf("Agencies referencing title %s", sel.Title))
			if len(ranked) == 0 {
				a.printer.Warning("no agency references title %s", sel.Title)
				return nil
			}
			t := output.NewTable(a.printer.Out(), "Agency", "Estimated words")
			for _, r := range ranked {
				t.AddRow(r.Name, strconv.Itoa(r.WordCount))
			}
			return t.Render()
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "CFR title number (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
