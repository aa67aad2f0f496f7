package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"goals/internal/core"
	"goals/internal/store"
	"goals/internal/ui"
)

var timeNow = time.Now

// goalFlags holds the raw flag values shared by create and update.
type goalFlags struct {
	name    string
	target  string
	balance string
	date    string
	account string
	icon    string
}

func (f *goalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "goal name")
	cmd.Flags().StringVar(&f.target, "target", "0", "target amount")
	cmd.Flags().StringVar(&f.balance, "balance", "0", "current balance")
	cmd.Flags().StringVar(&f.date, "date", "", "target date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.account, "account", "", "account id")
	cmd.Flags().StringVar(&f.icon, "icon", "", "single emoji icon")
}

// patch builds a patch from the flags the user actually passed.
func (f *goalFlags) patch(cmd *cobra.Command, id string) (core.GoalPatch, error) {
	p := core.GoalPatch{ID: id}
	changed := cmd.Flags().Changed

	if changed("name") {
		p.Name = core.Some(f.name)
	}
	if changed("target") {
		v, err := core.ParseAmount(f.target)
		if err != nil {
			return p, fmt.Errorf("--target: %w", err)
		}
		p.TargetAmount = core.Some(v)
	}
	if changed("balance") {
		v, err := core.ParseAmount(f.balance)
		if err != nil {
			return p, fmt.Errorf("--balance: %w", err)
		}
		p.Balance = core.Some(v)
	}
	if changed("date") {
		d, err := core.ParseDate(f.date)
		if err != nil {
			return p, fmt.Errorf("--date: %w", err)
		}
		p.TargetDate = core.Some(d)
	}
	if changed("account") {
		p.AccountID = core.Some(f.account)
	}
	if changed("icon") {
		if !ui.IsSingleEmoji(f.icon) {
			return p, fmt.Errorf("--icon: %w", core.ErrInvalidEmoji)
		}
		p.Icon = core.Some(f.icon)
	}
	return p, nil
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(repo store.Repository) error {
				goals, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				return a.printGoals(goals)
			})
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(repo store.Repository) error {
				g, err := repo.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printGoal(g)
			})
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var flags goalFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := flags.patch(cmd, "")
			if err != nil {
				return err
			}
			// Unset fields fall back to the form defaults.
			fields := core.ApplyPatch(core.Goal{TargetDate: core.Today(timeNow())}, p).Fields()
			fields.TransactionIDs = []string{}
			fields.TagIDs = []string{}
			if err := fields.Validate(); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(repo store.Repository) error {
				g, err := repo.Create(cmd.Context(), fields)
				if err != nil {
					return err
				}
				return a.printGoal(g)
			})
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var flags goalFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.patch(cmd, args[0])
			if err != nil {
				return err
			}
			if p.Empty() {
				return errors.New("nothing to update: pass at least one field flag")
			}
			return a.withStore(cmd.Context(), func(repo store.Repository) error {
				existing, err := repo.GetByID(cmd.Context(), p.ID)
				if err != nil {
					return err
				}
				if err := core.ApplyPatch(existing, p).Fields().Validate(); err != nil {
					return err
				}
				g, err := repo.Update(cmd.Context(), p)
				if err != nil {
					return err
				}
				return a.printGoal(g)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) printGoal(g core.Goal) error {
	if a.asJSON {
		return a.encodeJSON(g)
	}
	return a.printTable([]core.Goal{g})
}

func (a *app) printGoals(goals []core.Goal) error {
	if a.asJSON {
		if goals == nil {
			goals = []core.Goal{}
		}
		return a.encodeJSON(goals)
	}
	return a.printTable(goals)
}

func (a *app) encodeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printTable(goals []core.Goal) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tICON\tNAME\tBALANCE\tTARGET\tPROGRESS\tDATE")
	for _, g := range goals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			g.ID,
			g.Icon,
			g.Name,
			core.FormatAmount(g.Balance),
			core.FormatAmount(g.TargetAmount),
			core.Progress(g.Balance, g.TargetAmount),
			g.TargetDate)
	}
	return tw.Flush()
}
