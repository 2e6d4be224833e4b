package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
	"github.com/YogurtTheHorse/karma-bot/internal/features/karma"
	"github.com/YogurtTheHorse/karma-bot/internal/features/members"
)

// newCLIApp создаёт CLI со всеми командами.
func newCLIApp(ledger *karma.Ledger, memberService *members.Service, limit int, out io.Writer) *cli.App {
	app := &cli.App{
		Name:      "karmactl",
		Usage:     "Просмотр журнала кармы",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			eventsCmd(ledger, out),
			totalsCmd(ledger, memberService, out),
			todayCmd(ledger, limit, out),
		},
	}
	// без os.Exit внутри — ошибку возвращаем в main и в тесты
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func chatFlag() cli.Flag {
	return &cli.Int64Flag{Name: "chat", Aliases: []string{"c"}, Required: true, Usage: "ID чата"}
}

// eventJSON — событие в выводе --json.
type eventJSON struct {
	ID        string `json:"id"`
	ChatID    int64  `json:"chat_id"`
	Target    int64  `json:"target_user_id"`
	Actor     int64  `json:"actor_user_id"`
	Direction string `json:"direction"`
	CreatedAt string `json:"created_at"`
}

// eventsCmd выводит журнал событий чата.
func eventsCmd(ledger *karma.Ledger, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Все события кармы в чате, по времени",
		Flags: []cli.Flag{
			chatFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Вывод в JSON"},
		},
		Action: func(c *cli.Context) error {
			events, err := ledger.Events(c.Context, c.Int64("chat"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			if c.Bool("json") {
				list := make([]eventJSON, 0, len(events))
				for _, e := range events {
					list = append(list, eventJSON{
						ID:        e.ID,
						ChatID:    e.ChatID,
						Target:    e.TargetUserID,
						Actor:     e.ActorUserID,
						Direction: string(e.Direction),
						CreatedAt: e.CreatedAt.In(ledger.Location()).Format("2006-01-02T15:04:05Z07:00"),
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			for _, e := range events {
				fmt.Fprintf(out, "%s  %d → %d  %+d  %s\n",
					common.FormatDateTime(e.CreatedAt, ledger.Location()),
					e.ActorUserID, e.TargetUserID, e.Direction.Delta(), e.ID)
			}
			return nil
		},
	}
}

// totalsCmd выводит таблицу кармы, включая тех, кто уже вышел из чата.
func totalsCmd(ledger *karma.Ledger, memberService *members.Service, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "totals",
		Usage: "Суммарная карма по пользователям",
		Flags: []cli.Flag{chatFlag()},
		Action: func(c *cli.Context) error {
			chatID := c.Int64("chat")
			totals, err := ledger.TotalsByUser(c.Context, chatID)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if len(totals) == 0 {
				fmt.Fprintln(out, karma.MsgNoKarma)
				return nil
			}

			names, err := memberService.Names(c.Context, chatID)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			for _, t := range totals {
				name, ok := names[t.UserID]
				if !ok {
					name = fmt.Sprintf("id%d (не в чате)", t.UserID)
				}
				fmt.Fprintf(out, "%s: %d\n", name, t.Karma)
			}
			return nil
		},
	}
}

// todayCmd показывает, сколько раз пользователь сегодня менял карму.
func todayCmd(ledger *karma.Ledger, limit int, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "today",
		Usage: "Сколько раз пользователь сегодня давал и снимал карму",
		Flags: []cli.Flag{
			chatFlag(),
			&cli.Int64Flag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "ID пользователя"},
		},
		Action: func(c *cli.Context) error {
			counts, err := ledger.TodayCounts(c.Context, c.Int64("chat"), c.Int64("user"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Fprintf(out, "+1: %d %s из %d\n", counts.Increase, common.PluralizeTimes(counts.Increase), limit)
			fmt.Fprintf(out, "-1: %d %s из %d\n", counts.Decrease, common.PluralizeTimes(counts.Decrease), limit)
			return nil
		},
	}
}
