// ABOUTME: CLI commands for managing and querying recipes.
// ABOUTME: Primitive aliases, derived formulas, and on-demand evaluation.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var (
	recipeDeps    string
	recipeCalc    string
	recipeUnit    string
	recipeViz     string
	recipeFrom    string
	recipeTo      string
	recipeCalcKey string
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Manage and query recipes",
	Long: `Manage the recipe catalog and query recipe series.

A recipe is a selectable observable. It comes in two kinds:

  primitive   A thin alias over exactly one metric. Querying it returns
              that metric's raw observations.
  derived     A virtual metric computed from dependency metrics by a
              registered calculation. Values are computed on demand at
              exactly-matching observation timestamps and never stored.`,
}

var recipeAddPrimitiveCmd = &cobra.Command{
	Use:   "add-primitive <metric>",
	Short: "Define a primitive recipe",
	Long: `Define a primitive recipe aliasing one metric.

Examples:
  vitals recipe add-primitive weight
  vitals recipe add-primitive 16`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		metric, err := resolveMetric(args[0])
		if err != nil {
			return err
		}

		recipe := models.NewPrimitiveRecipe(metric.ID)
		if err := svc.CreateRecipe(recipe); err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}

		color.Green("✓ Added primitive recipe for %s", metric.Code)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprintf("#%d", recipe.ID))
		return nil
	},
}

var recipeAddDerivedCmd = &cobra.Command{
	Use:   "add-derived <code> <name> <value-type>",
	Short: "Define a derived recipe",
	Long: `Define a derived recipe computed from dependency metrics.

The --deps flag takes a comma-separated, ordered list of metric ids. The
--calc flag names a registered calculation; unknown keys are rejected.

Examples:
  vitals recipe add-derived tyg "TyG Index" float --deps 16,18 --calc tyg_v1
  vitals recipe add-derived intake "Total intake" float --deps 3,4,5 --calc sum_v1 --unit kcal`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if recipeDeps == "" || recipeCalc == "" {
			return fmt.Errorf("derived recipes require --deps and --calc")
		}

		var deps []int64
		for _, part := range strings.Split(recipeDeps, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid dependency id: %s", part)
			}
			deps = append(deps, id)
		}

		recipe := models.NewDerivedRecipe(args[0], args[1],
			models.ValueType(args[2]), deps, recipeCalc)
		if recipeUnit != "" {
			recipe.WithUnit(recipeUnit)
		}
		if recipeViz != "" {
			recipe.WithVisualization(models.Visualization(recipeViz))
		}

		if err := svc.CreateRecipe(recipe); err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}

		color.Green("✓ Added derived recipe %s", args[0])
		fmt.Printf("  %s %s via %s\n",
			color.New(color.Faint).Sprintf("#%d", recipe.ID),
			args[1], recipeCalc)
		return nil
	},
}

var recipeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recipes",
	Long: `List recipes from the catalog.

Without flags, lists active derived recipes ordered by name (the
selectable set). Use --calc to list every recipe bound to a calculation
key instead, primitives excluded by definition.

Examples:
  vitals recipe list
  vitals recipe list --calc tyg_v1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var recipes []*models.Recipe
		var err error
		if recipeCalcKey != "" {
			recipes, err = repo.ListRecipes(recipeCalcKey, storage.Page{})
		} else {
			recipes, err = svc.ListSelectableRecipes()
		}
		if err != nil {
			return fmt.Errorf("failed to list recipes: %w", err)
		}

		if len(recipes) == 0 {
			fmt.Println("No recipes found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, r := range recipes {
			switch r.Kind {
			case models.RecipePrimitive:
				fmt.Printf("%s primitive -> metric %d\n",
					faint.Sprintf("#%-4d", r.ID), r.Primitive.MetricID)
			case models.RecipeDerived:
				d := r.Derived
				fmt.Printf("%s %s %s via %s deps=%v\n",
					faint.Sprintf("#%-4d", r.ID),
					padRight(d.Code, 16), d.Name, d.CalcKey, d.Deps)
			}
		}
		return nil
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <recipe-id>",
	Short: "Show a recipe definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid recipe id: %s", args[0])
		}

		r, err := repo.GetRecipe(id)
		if err != nil {
			return fmt.Errorf("failed to get recipe: %w", err)
		}

		faint := color.New(color.Faint)
		switch r.Kind {
		case models.RecipePrimitive:
			metric, err := repo.GetMetric(r.Primitive.MetricID)
			if err != nil {
				return fmt.Errorf("failed to get aliased metric: %w", err)
			}
			fmt.Printf("%s primitive\n", faint.Sprintf("#%d", r.ID))
			fmt.Printf("  metric: #%d %s (%s)\n", metric.ID, metric.Code, metric.Name)
		case models.RecipeDerived:
			d := r.Derived
			fmt.Printf("%s derived %s\n", faint.Sprintf("#%d", r.ID), d.Code)
			fmt.Printf("  name:  %s\n", d.Name)
			fmt.Printf("  calc:  %s\n", d.CalcKey)
			fmt.Printf("  deps:  %v\n", d.Deps)
			fmt.Printf("  type:  %s\n", d.ValueType)
			if d.Unit != "" {
				fmt.Printf("  unit:  %s\n", d.Unit)
			}
		}
		return nil
	},
}

var recipeQueryCmd = &cobra.Command{
	Use:   "query <subject-id> <recipe-id>",
	Short: "Query a recipe series",
	Long: `Query a recipe series for a subject.

A primitive recipe returns the aliased metric's raw observations. A
derived recipe aligns its dependency observations on exact timestamps,
applies the calculation to each complete row, and returns the computed
points. Incomplete rows are skipped (or abort the query when strict
evaluation is configured).

Examples:
  vitals recipe query 1 3
  vitals recipe query 1 3 --from 2024-01-01 --to 2024-06-30`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid subject id: %s", args[0])
		}
		recipeID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid recipe id: %s", args[1])
		}

		rng, err := parseRangeFlags(recipeFrom, recipeTo)
		if err != nil {
			return err
		}

		result, err := svc.QueryDerivedSeries(subjectID, recipeID, rng)
		if err != nil {
			return fmt.Errorf("failed to query recipe: %w", err)
		}

		faint := color.New(color.Faint)
		switch result.Recipe.Kind {
		case models.RecipePrimitive:
			if len(result.Points) == 0 {
				fmt.Println("No points in range.")
				return nil
			}
			for _, p := range result.Points {
				fmt.Printf("  %s %s\n",
					faint.Sprint(p.ObservedAt.Format("2006-01-02 15:04")), p.Value)
			}
		case models.RecipeDerived:
			if len(result.Derived) == 0 {
				fmt.Println("No points in range.")
				return nil
			}
			d := result.Recipe.Derived
			fmt.Printf("%s (%s)\n", d.Name, d.CalcKey)
			for _, p := range result.Derived {
				fmt.Printf("  %s %.4f %s\n",
					faint.Sprint(p.ObservedAt.Format("2006-01-02 15:04")),
					p.Value, d.Unit)
			}
		}
		return nil
	},
}

func init() {
	recipeAddDerivedCmd.Flags().StringVar(&recipeDeps, "deps", "", "comma-separated dependency metric ids")
	recipeAddDerivedCmd.Flags().StringVar(&recipeCalc, "calc", "", "registered calculation key")
	recipeAddDerivedCmd.Flags().StringVar(&recipeUnit, "unit", "", "display unit")
	recipeAddDerivedCmd.Flags().StringVar(&recipeViz, "viz", "", "visualization hint")
	recipeListCmd.Flags().StringVar(&recipeCalcKey, "calc", "", "filter by calculation key")
	recipeQueryCmd.Flags().StringVar(&recipeFrom, "from", "", "range start, inclusive (YYYY-MM-DD)")
	recipeQueryCmd.Flags().StringVar(&recipeTo, "to", "", "range end, inclusive (YYYY-MM-DD)")

	recipeCmd.AddCommand(recipeAddPrimitiveCmd)
	recipeCmd.AddCommand(recipeAddDerivedCmd)
	recipeCmd.AddCommand(recipeListCmd)
	recipeCmd.AddCommand(recipeShowCmd)
	recipeCmd.AddCommand(recipeQueryCmd)
	rootCmd.AddCommand(recipeCmd)
}
