package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"
)

const dateLayout = "2006-01-02 15:04"

func (a *App) Stats(ctx context.Context) error {
	s, err := a.api.Stats(ctx)
	if err != nil {
		return a.report(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Accounts\t%d\n", s.Total)
	fmt.Fprintf(tw, "  active\t%d\n", s.Active)
	fmt.Fprintf(tw, "  expired\t%d\n", s.Expired)
	fmt.Fprintf(tw, "  disabled\t%d\n", s.Disabled)
	fmt.Fprintf(tw, "  expiring soon\t%d\n", s.ExpiringSoon)
	fmt.Fprintf(tw, "Transactions\t%d\n", s.Transactions)
	fmt.Fprintf(tw, "Revenue\t%.2f\n", float64(s.RevenueMinor)/100)
	fmt.Fprintf(tw, "Logins (24h)\t%d\n", s.LoginsLast24h)
	fmt.Fprintf(tw, "Failed notifications\t%d\n", s.FailedNotifies)
	return tw.Flush()
}

// Users lists one page of accounts. args are optional limit and offset.
func (a *App) Users(ctx context.Context, args []string) error {
	limit, offset := 50, 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintln(a.out, "usage: users [limit] [offset]")
			return fmt.Errorf("bad limit %q", args[0])
		}
		limit = n
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			fmt.Fprintln(a.out, "usage: users [limit] [offset]")
			return fmt.Errorf("bad offset %q", args[1])
		}
		offset = n
	}

	users, err := a.api.Users(ctx, limit, offset)
	if err != nil {
		return a.report(err)
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No accounts.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tSTATUS\tEXPIRES\tWARNED")
	for _, u := range users {
		warned := "-"
		if u.WarnedAt != nil {
			warned = u.WarnedAt.Local().Format(dateLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.Email, u.Name, u.Status, u.ExpiresAt.Local().Format(dateLayout), warned)
	}
	return tw.Flush()
}

func (a *App) Disable(ctx context.Context, args []string) error {
	email, err := a.emailArg(args)
	if err != nil {
		return err
	}
	if !Confirm(a.input, fmt.Sprintf("Disable %s? Their sessions stop working immediately.", email), a.out) {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	acct, err := a.api.Disable(ctx, email)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s is now %s.\n", acct.Email, acct.Status)
	return nil
}

func (a *App) Enable(ctx context.Context, args []string) error {
	email, err := a.emailArg(args)
	if err != nil {
		return err
	}
	acct, err := a.api.Enable(ctx, email)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s is now %s (expires %s).\n", acct.Email, acct.Status, acct.ExpiresAt.Local().Format(dateLayout))
	return nil
}

func (a *App) Sweep(ctx context.Context) error {
	r, err := a.api.Sweep(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Sweep done in %s: %d warned, %d warning failures, %d expired.\n",
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Warned, r.WarnFailures, r.Expired)
	return nil
}

func (a *App) emailArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	email, err := GetSimpleText(a.input, "Email", a.out)
	if err != nil {
		return "", err
	}
	if email == "" {
		fmt.Fprintln(a.out, "Email is required.")
		return "", fmt.Errorf("email is required")
	}
	return email, nil
}
