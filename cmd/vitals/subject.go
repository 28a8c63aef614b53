// ABOUTME: CLI commands for managing subjects.
// ABOUTME: Add and list the entities observations are recorded against.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var subjectKind string

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage subjects",
	Long: `Manage subjects: the entities observations are recorded against.

Common kinds are user, member, and device; any short label is accepted.`,
}

var subjectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new subject",
	Long: `Register a new subject.

Examples:
  vitals subject add
  vitals subject add --kind device`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := models.SubjectUser
		if subjectKind != "" {
			kind = models.SubjectKind(subjectKind)
		}

		subject := models.NewSubject(kind)
		if err := svc.CreateSubject(subject); err != nil {
			return fmt.Errorf("failed to add subject: %w", err)
		}

		color.Green("✓ Added %s subject", subject.Kind)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprintf("#%d", subject.ID))
		return nil
	},
}

var subjectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List subjects",
	RunE: func(cmd *cobra.Command, args []string) error {
		subjects, err := repo.ListSubjects(storage.Page{})
		if err != nil {
			return fmt.Errorf("failed to list subjects: %w", err)
		}

		if len(subjects) == 0 {
			fmt.Println("No subjects found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range subjects {
			fmt.Printf("%s %s %s\n",
				faint.Sprintf("#%-4d", s.ID),
				padRight(string(s.Kind), 10),
				faint.Sprint(s.CreatedAt.Format("2006-01-02")))
		}
		return nil
	},
}

func init() {
	subjectAddCmd.Flags().StringVar(&subjectKind, "kind", "", "subject kind (user, member, device)")

	subjectCmd.AddCommand(subjectAddCmd)
	subjectCmd.AddCommand(subjectListCmd)
	rootCmd.AddCommand(subjectCmd)
}
