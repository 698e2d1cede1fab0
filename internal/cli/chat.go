package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

// Chat list orders. Pages always load newest first; oldest reverses what was loaded.
const (
	chatOrderNewest = "newest"
	chatOrderOldest = "oldest"
)

const chatTimeLayout = "2006-01-02 15:04"

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "chat", Aliases: []string{"messages"}, Short: "Team chat commands"}
	cmd.AddCommand(newChatPostCmd(), newChatListCmd(), newChatDeleteCmd())
	return cmd
}

type chatPostFlags struct {
	attachmentURL  string
	attachmentName string
	attachmentType string
	attachmentSize int64
	output         string
}

func (f chatPostFlags) attachment() *record.Attachment {
	if f.attachmentURL == "" {
		return nil
	}
	return &record.Attachment{
		URL:  f.attachmentURL,
		Name: f.attachmentName,
		Type: f.attachmentType,
		Size: f.attachmentSize,
	}
}

func newChatPostCmd() *cobra.Command {
	var f chatPostFlags

	cmd := &cobra.Command{
		Use:   "post [message]",
		Short: "Post a message to the team chat",
		Example: `  planfocus chat post "Standup moved to 10:00"

  # Link a file that is already hosted somewhere
  planfocus chat post "Sprint plan" --attachment-url https://files.example/plan.pdf --attachment-type application/pdf`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			format, err := resolveOutput(cmd, f.output)
			if err != nil {
				return err
			}
			ms, closeStore, err := rt.chat(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			m, err := ms.Post(cmd.Context(), strings.Join(args, " "), f.attachment())
			if err != nil {
				return err
			}
			if format == outputJSON {
				return writeJSON(cmd.OutOrStdout(), m)
			}
			cmd.Printf("Posted message %s\n", m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.attachmentURL, "attachment-url", "", "link to an attached file")
	cmd.Flags().StringVar(&f.attachmentName, "attachment-name", "", "attachment file name")
	cmd.Flags().StringVar(&f.attachmentType, "attachment-type", "", "attachment MIME type")
	cmd.Flags().Int64Var(&f.attachmentSize, "attachment-size", 0, "attachment size in bytes")
	addOutputFlag(cmd, &f.output)
	return cmd
}

type chatListFlags struct {
	listFlags
	mine bool
}

func newChatListCmd() *cobra.Command {
	var f chatListFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chat messages, newest first",
		Example: `  # The latest page of messages
  planfocus chat list

  # The last three pages, read top to bottom
  planfocus chat list --pages 3 --sort oldest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChatList(cmd, f)
		},
	}

	addListFlags(cmd, &f.listFlags, "order of loaded messages: newest or oldest")
	cmd.Flags().BoolVar(&f.mine, "mine", false, "only messages I posted")
	return cmd
}

func runChatList(cmd *cobra.Command, f chatListFlags) error {
	ctx := cmd.Context()
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}
	params, err := f.params(rt.cfg)
	if err != nil {
		return err
	}
	format, err := resolveOutput(cmd, f.output)
	if err != nil {
		return err
	}
	order := strings.ToLower(strings.TrimSpace(f.sort))
	switch order {
	case "", chatOrderNewest:
		order = chatOrderNewest
	case chatOrderOldest:
	default:
		return fmt.Errorf("%w: %q (valid: %s, %s)",
			pagination.ErrInvalidSortField, f.sort, chatOrderNewest, chatOrderOldest)
	}
	params.SortField, params.SortOrder = order, ""

	ms, closeStore, err := rt.chat(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var fetcher *store.Fetcher
	if f.mine {
		fetcher = ms.FromSenderFetcher(rt.cfg.Session.ActorID)
	} else {
		fetcher = ms.HistoryFetcher()
	}

	state, pages, err := collect(ctx, fetcher, params)
	if err != nil {
		return err
	}
	items := toMessages(state.Items)
	if order == chatOrderOldest {
		slices.Reverse(items)
	}
	meta := pagination.NewListMeta(params, pages, state.Len(), state.HasMore)

	if format == outputJSON {
		return writeJSON(cmd.OutOrStdout(), listResult[record.Message]{Items: items, Meta: meta})
	}
	renderMessageTable(cmd, items)
	printMoreHint(cmd.OutOrStdout(), meta)
	return nil
}

func toMessages(records []record.Record) []record.Message {
	out := make([]record.Message, 0, len(records))
	for _, rec := range records {
		out = append(out, record.MessageFromRecord(rec))
	}
	return out
}

func formatMessageTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(chatTimeLayout)
}

func renderMessageTable(cmd *cobra.Command, items []record.Message) {
	if len(items) == 0 {
		cmd.Println("No messages yet.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tFROM\tMESSAGE")
	for _, m := range items {
		text := m.Content
		if a := m.Attachment; a != nil {
			text = strings.TrimSpace(text + " [" + orDash(a.Name, a.URL) + "]")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, formatMessageTime(m.Timestamp), orDash(m.SenderName, m.SenderID), text)
	}
	_ = w.Flush()
}

func newChatDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <message-id>",
		Short: "Delete a chat message",
		Long:  "Deletes a message. You may delete your own messages; deleting others' needs the delete_message permission.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				res := ConfirmWithStdin(cmd.OutOrStdout(), fmt.Sprintf("Delete message %s?", args[0]))
				if !res.Accepted {
					return errDeclined(res)
				}
			}
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			ms, closeStore, err := rt.chat(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := ms.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted message %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
