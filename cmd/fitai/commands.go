package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/fitai/internal/config"
	"github.com/kalambet/fitai/internal/console"
	"github.com/kalambet/fitai/internal/plan"
	"github.com/kalambet/fitai/internal/profile"
)

// --- profiles ---

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		refs, err := a.store.ListProfiles(cmd.Context())
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles found.")
			return nil
		}
		for _, r := range refs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
				colorize(colorCyan, r.ID),
				r.UpdatedAt.Format("2006-01-02 15:04"),
				r.Name,
			)
		}
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update a profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a profile with BMI and plan dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.loadUser(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), profile.NewSnapshot(p, false))
		}
		console.New(os.Stdin, cmd.OutOrStdout(), noColor).ShowProfile(p)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set a profile field",
	Long: `Set a profile field. The value goes through the same validation as
updates made in conversation.

Fields: ` + strings.Join(fieldNames(), ", ") + `

Examples:
  fitai profile set weight_kg 80 --user sam
  fitai profile set fitness_goal "Muscle Gain" --user sam --regenerate`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		regenerate, _ := cmd.Flags().GetBool("regenerate")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.resolveUser(cmd.Context())
		if err != nil {
			return err
		}
		coach := a.coach(nil)
		if regenerate {
			eng, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			coach = a.coach(eng)
		}

		res, err := coach.SetFields(cmd.Context(), id, map[string]string{args[0]: args[1]}, regenerate)
		if err != nil {
			return err
		}
		if len(res.Reconciled.Rejected) > 0 {
			r := res.Reconciled.Rejected[0]
			return fmt.Errorf("invalid %s %q: %w", r.Field, r.Raw, r.Reason)
		}
		if !res.Reconciled.Changed() {
			printWarning("%s is already %s", args[0], args[1])
			return nil
		}
		for _, c := range res.Reconciled.Applied {
			printSuccess("Set %s: %s → %s", c.Field, c.From, c.To)
		}
		switch {
		case res.Regenerated:
			printSuccess("Plans regenerated")
		case res.RegenErr != nil:
			printWarning("Plans kept: %v", res.RegenErr)
		}
		return nil
	},
}

func fieldNames() []string {
	fields := profile.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func init() {
	profileShowCmd.Flags().Bool("json", false, "print the profile as JSON")
	profileSetCmd.Flags().Bool("regenerate", false, "regenerate plans after the change")
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}

// --- plans ---

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Show, import or regenerate workout and diet plans",
}

var plansShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.loadUser(cmd.Context())
		if err != nil {
			return err
		}
		kinds, err := planKinds(kind)
		if err != nil {
			return err
		}
		ui := console.New(os.Stdin, cmd.OutOrStdout(), noColor)
		for _, k := range kinds {
			pl := p.Plan(k)
			if pl == nil {
				printWarning("No %s plan yet", k)
				continue
			}
			ui.ShowMarkdown(fmt.Sprintf("Your %s plan (updated %s)", k, pl.UpdatedAt.Format("2006-01-02")), pl.Text)
		}
		return nil
	},
}

var plansImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace a plan with the contents of a file",
	Long: `Replace a plan with the contents of a Markdown, text or PDF file.

Examples:
  fitai plans import --user sam --kind workout --file ./coach-plan.pdf
  fitai plans import --user sam --kind diet --file ./meals.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			return fmt.Errorf("--file is required")
		}
		kinds, err := planKinds(kind)
		if err != nil {
			return err
		}
		if len(kinds) != 1 {
			return fmt.Errorf("--kind is required (workout or diet)")
		}

		text, err := plan.ReadFile(file)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.loadUser(cmd.Context())
		if err != nil {
			return err
		}
		if err := plan.NewService(noModel{}, a.store).Import(cmd.Context(), &p, kinds[0], text); err != nil {
			return err
		}
		printSuccess("Imported %s plan from %s", kinds[0], file)
		return nil
	},
}

var plansRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Regenerate both plans from the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.resolveUser(cmd.Context())
		if err != nil {
			return err
		}
		eng, err := a.openEngine(cmd.Context())
		if err != nil {
			return err
		}
		printStep("Generating plans...")
		if _, err := a.coach(eng).Regenerate(cmd.Context(), id); err != nil {
			if errors.Is(err, plan.ErrRegeneration) {
				printWarning("Your previous plans are kept.")
			}
			return err
		}
		printSuccess("Plans regenerated")
		return nil
	},
}

// planKinds parses --kind. Empty means both.
func planKinds(kind string) ([]profile.PlanKind, error) {
	switch strings.ToLower(kind) {
	case "":
		return []profile.PlanKind{profile.WorkoutPlan, profile.DietPlan}, nil
	case string(profile.WorkoutPlan):
		return []profile.PlanKind{profile.WorkoutPlan}, nil
	case string(profile.DietPlan):
		return []profile.PlanKind{profile.DietPlan}, nil
	}
	return nil, fmt.Errorf("unknown plan kind %q (want workout or diet)", kind)
}

func init() {
	plansShowCmd.Flags().String("kind", "", "workout or diet (default: both)")
	plansImportCmd.Flags().String("kind", "", "workout or diet")
	plansImportCmd.Flags().String("file", "", "Markdown, text or PDF file to import")
	plansCmd.AddCommand(plansShowCmd)
	plansCmd.AddCommand(plansImportCmd)
	plansCmd.AddCommand(plansRegenerateCmd)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversation turns",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.resolveUser(cmd.Context())
		if err != nil {
			return err
		}
		turns, err := a.store.Turns(cmd.Context(), id, limit)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No previous conversations found.")
			return nil
		}
		console.New(os.Stdin, cmd.OutOrStdout(), noColor).ShowHistory(turns)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 10, "number of recent turns to show")
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export stored data",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export profiles with plans and history as JSONL",
	Long: `Export profiles with plans and full conversation history, one JSON
object per line. With --user only that profile is exported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var ids []string
		if userHandle != "" {
			id, err := a.resolveUser(cmd.Context())
			if err != nil {
				return err
			}
			ids = append(ids, id)
		} else {
			refs, err := a.store.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range refs {
				ids = append(ids, r.ID)
			}
		}

		var w io.Writer = cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		enc := json.NewEncoder(w)
		for _, id := range ids {
			p, err := a.store.Load(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading profile %s: %w", id, err)
			}
			record := map[string]any{"type": "profile", "data": profile.NewSnapshot(p, true)}
			if err := enc.Encode(record); err != nil {
				return err
			}
		}

		if output != "" {
			printSuccess("Exported %d profiles to %s", len(ids), output)
		}
		return nil
	},
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	dataCmd.AddCommand(dataExportCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s", key)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Restore a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
