package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/atinyakov/unidocs/internal/client/search"
	"github.com/atinyakov/unidocs/internal/client/upload"
	"github.com/atinyakov/unidocs/internal/models"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", arg)
	}
	return id, nil
}

func (a *app) searchCmd() *cobra.Command {
	var (
		filters search.Filters
		page    int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search or browse approved documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := filters.Values()
			if page > 1 {
				q.Set("page", strconv.Itoa(page))
			}
			location := "/search"
			if len(q) > 0 {
				location += "?" + q.Encode()
			}
			a.visit(location)
			res, err := search.NewView(a.api, a.router).Load(cmd.Context())
			if err != nil {
				return err
			}
			printDocuments(a, res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&filters.Text, "q", "", "keywords (title, description, subject)")
	f.StringVar(&filters.Type, "type", "", "document type: cours, examen, td, tp, expose")
	f.Int64Var(&filters.InstitutionID, "institution", 0, "institution id (browse only)")
	f.StringVar(&filters.Level, "level", "", "academic level (browse only)")
	f.IntVar(&page, "page", 1, "page number")
	return cmd
}

func printDocuments(a *app, res *models.DocumentPage) {
	t := newTable("Documents", "ID", "Title", "Type", "Subject", "Rating", "Downloads")
	for _, d := range res.Documents {
		t.AddRow(fmt.Sprint(d.ID), d.Title, d.Type, d.Subject,
			fmt.Sprintf("%.1f", d.Rating), fmt.Sprint(d.Downloads))
	}
	fmt.Fprint(a.out, t.Render())
	fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf("page %d/%d, %d documents", res.Page, max(res.Pages, 1), res.Total)))
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a.visit(fmt.Sprintf("/documents/%d", id))
			d, err := a.api.Document(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderFields([][2]string{
				{"Title", d.Title},
				{"Type", d.Type},
				{"Subject", d.Subject},
				{"Year", d.AcademicYear},
				{"Author", d.Author},
				{"File", fmt.Sprintf("%s (%s, %d bytes)", d.FileName, d.Format, d.Size)},
				{"Rating", fmt.Sprintf("%.1f", d.Rating)},
				{"Downloads", fmt.Sprint(d.Downloads)},
				{"Description", d.Description},
				{"Download", a.api.DownloadURL(d.ID)},
			}))
			return nil
		},
	}
}

func (a *app) downloadCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a document's file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tmp, err := os.CreateTemp(".", ".unidocs-download-*")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())

			name, n, err := a.api.Download(cmd.Context(), id, tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			dest := output
			if dest == "" {
				dest = filepath.Base(name)
			}
			if dest == "" || dest == "." || dest == string(filepath.Separator) {
				dest = fmt.Sprintf("document-%d", id)
			}
			if err := os.Rename(tmp.Name(), dest); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", dest, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default: the original file name)")
	return cmd
}

func (a *app) uploadCmd() *cobra.Command {
	var (
		institutionID, programID, subjectID int64
		level, path                         string
		title, description, docType, year   string
	)
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Share a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.visit("/upload")
			ctx := cmd.Context()
			form := upload.NewForm(a.api, a.router, a.cfg.MaxUploadBytes)

			changes := []upload.Change{upload.Select(upload.FieldInstitution, institutionID)}
			if programID > 0 {
				changes = append(changes, upload.Select(upload.FieldProgram, programID))
			}
			if level != "" {
				changes = append(changes, upload.Set(upload.FieldLevel, level))
			}
			if subjectID > 0 {
				changes = append(changes, upload.Select(upload.FieldSubject, subjectID))
			}
			changes = append(changes,
				upload.Set(upload.FieldTitle, title),
				upload.Set(upload.FieldDescription, description),
				upload.Set(upload.FieldType, docType),
				upload.Set(upload.FieldAcademicYear, year),
			)
			for _, c := range changes {
				if err := form.Change(ctx, c); err != nil {
					if errors.Is(err, upload.ErrFieldDisabled) {
						return fmt.Errorf("--%s needs its parent selection first", c.Field)
					}
					return err
				}
			}

			if path != "" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				info, err := f.Stat()
				if err != nil {
					return err
				}
				if err := form.Stage(filepath.Base(path), info.Size(), f); err != nil {
					return err
				}
			}

			doc, err := form.Submit(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Uploaded %q as document %d\n", doc.Title, doc.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&institutionID, "institution", 0, "institution id")
	f.Int64Var(&programID, "program", 0, "program id")
	f.StringVar(&level, "level", "", "academic level")
	f.Int64Var(&subjectID, "subject", 0, "subject id")
	f.StringVar(&title, "title", "", "document title")
	f.StringVar(&description, "description", "", "description")
	f.StringVar(&docType, "type", "", "cours, examen, td, tp or expose")
	f.StringVar(&year, "year", "", "academic year, e.g. 2024-2025")
	f.StringVar(&path, "file", "", "file to upload")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteDocument(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Document %d deleted\n", id)
			return nil
		},
	}
}

func (a *app) rateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <id> <score>",
		Short: "Rate a document from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			score, err := strconv.Atoi(args[1])
			if err != nil || score < 1 || score > 5 {
				return fmt.Errorf("score must be between 1 and 5")
			}
			res, err := a.api.RateDocument(cmd.Context(), id, score)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Rated %d/5, average now %.1f\n", score, res.Average)
			return nil
		},
	}
}
