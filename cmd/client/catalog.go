package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) institutionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "institutions",
		Short: "List institutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.api.Institutions(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable("Institutions", "ID", "Code", "Name", "City")
			for _, i := range list {
				t.AddRow(fmt.Sprint(i.ID), i.Code, i.Name, i.City)
			}
			fmt.Fprint(a.out, t.Render())
			return nil
		},
	}
}

func (a *app) programsCmd() *cobra.Command {
	var institutionID int64
	cmd := &cobra.Command{
		Use:   "programs",
		Short: "List programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.api.Programs(cmd.Context(), institutionID)
			if err != nil {
				return err
			}
			t := newTable("Programs", "ID", "Name", "Institution")
			for _, p := range list {
				t.AddRow(fmt.Sprint(p.ID), p.Name, p.Institution)
			}
			fmt.Fprint(a.out, t.Render())
			return nil
		},
	}
	cmd.Flags().Int64Var(&institutionID, "institution", 0, "only programs of this institution")
	return cmd
}

func (a *app) subjectsCmd() *cobra.Command {
	var (
		programID int64
		level     string
	)
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.api.Subjects(cmd.Context(), programID, level)
			if err != nil {
				return err
			}
			t := newTable("Subjects", "ID", "Name", "Level", "Program")
			for _, s := range list {
				t.AddRow(fmt.Sprint(s.ID), s.Name, s.Level, s.Program)
			}
			fmt.Fprint(a.out, t.Render())
			return nil
		},
	}
	cmd.Flags().Int64Var(&programID, "program", 0, "only subjects of this program")
	cmd.Flags().StringVar(&level, "level", "", "only subjects at this level")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show platform statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.api.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderFields([][2]string{
				{"Institutions", fmt.Sprint(s.Institutions)},
				{"Programs", fmt.Sprint(s.Programs)},
				{"Subjects", fmt.Sprint(s.Subjects)},
				{"Documents", fmt.Sprint(s.Documents)},
				{"Users", fmt.Sprint(s.Users)},
			}))
			return nil
		},
	}
}
