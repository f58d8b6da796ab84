package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const logsUsage = "Usage: logs [list|more|type <type>|range <from> <to>|version <v>|search <term>|recent [n]]  (dates as YYYY-MM-DD)"

// Logs dispatches the "logs" subcommands.
func (a *App) Logs(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	if sub == "list" {
		return a.router.Navigate(ctx, pathLogs)
	}
	if !a.enter(ctx, pathLogs) {
		return nil
	}

	switch sub {
	case "more":
		if err := a.logs.LoadMore(ctx); err != nil {
			a.printf("error: %s\n", a.logs.LastError())
			return err
		}
		a.Show(ctx, pathLogs, a.logList("Logs", nil))

	case "type":
		if len(args) == 0 {
			a.printf("%s\n", logsUsage)
			return nil
		}
		if err := a.logs.FetchByType(ctx, args[0]); err != nil {
			a.printf("error: %s\n", a.logs.LastError())
			return err
		}
		a.Show(ctx, pathLogs, a.logList(fmt.Sprintf("Logs of type %q", args[0]), nil))

	case "range":
		if len(args) < 2 {
			a.printf("%s\n", logsUsage)
			return nil
		}
		from, err1 := time.Parse(time.DateOnly, args[0])
		to, err2 := time.Parse(time.DateOnly, args[1])
		if err1 != nil || err2 != nil {
			a.printf("Dates must look like 2024-01-31.\n")
			return nil
		}
		// the end date is inclusive
		to = to.Add(24*time.Hour - time.Second)
		if err := a.logs.FetchByDateRange(ctx, from, to); err != nil {
			a.printf("error: %s\n", a.storeError(err, a.logs.LastError()))
			return err
		}
		a.Show(ctx, pathLogs, a.logList(fmt.Sprintf("Logs %s to %s", args[0], args[1]), nil))

	case "version":
		if len(args) == 0 {
			a.printf("%s\n", logsUsage)
			return nil
		}
		a.Show(ctx, pathLogs, a.logList("Version "+args[0], nonNil(a.logs.ByVersion(args[0]))))

	case "search":
		term := strings.Join(args, " ")
		a.Show(ctx, pathLogs, a.logList(fmt.Sprintf("Search %q", term), nonNil(a.logs.Search(term))))

	case "recent":
		n := 0
		if len(args) > 0 {
			n, _ = strconv.Atoi(args[0])
		}
		a.Show(ctx, pathLogs, a.logList("Recent", nonNil(a.logs.Recent(n))))

	default:
		a.printf("%s\n", logsUsage)
	}
	return nil
}
