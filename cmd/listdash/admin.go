package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/listdash/internal/dashboard"
	"github.com/foxzi/listdash/internal/store"
)

// openService opens the store named in the config. The server must not be
// running: bbolt holds an exclusive lock on the file.
func openService() (*dashboard.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := dashboard.New(st, dashboard.Options{StatsDays: cfg.Dashboard.StatsDays}, logger)
	return svc, func() { st.Close() }, nil
}

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Domain management commands",
}

var domainAddCmd = &cobra.Command{
	Use:   "add <mail_host> <base_url>",
	Short: "Register a mail domain",
	Args:  cobra.ExactArgs(2),
	RunE:  runDomainAdd,
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered domains",
	RunE:  runDomainList,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Mailing list commands",
}

var listCreateCmd = &cobra.Command{
	Use:   "create <name@domain>",
	Short: "Create a mailing list",
	Args:  cobra.ExactArgs(1),
	RunE:  runListCreate,
}

var listShowCmd = &cobra.Command{
	Use:   "show <list_id>",
	Short: "Show a list with its rosters",
	Args:  cobra.ExactArgs(1),
	RunE:  runListShow,
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Pending request commands",
}

var requestAddCmd = &cobra.Command{
	Use:   "add <moderation|subscription> <list_id> <email>",
	Short: "Record a pending request",
	Args:  cobra.ExactArgs(3),
	RunE:  runRequestAdd,
}

var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending requests",
	RunE:  runRequestList,
}

var requestDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Resolve a pending request",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestDelete,
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Dashboard task commands",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tasks a user sees on the dashboard",
	RunE:  runTaskList,
}

var (
	domainDescription string
	listDisplayName   string
	requestKind       string
	requestSubject    string
	requestAction     string
	taskUser          string
	taskOrder         string
)

func init() {
	domainAddCmd.Flags().StringVar(&domainDescription, "description", "", "Domain description")
	domainCmd.AddCommand(domainAddCmd, domainListCmd)

	listCreateCmd.Flags().StringVar(&listDisplayName, "display-name", "", "Display name (default: capitalised list name)")
	listCmd.AddCommand(listCreateCmd, listShowCmd,
		rosterCommand("add-owner", store.RoleOwner),
		rosterCommand("add-moderator", store.RoleModerator),
		rosterCommand("subscribe", store.RoleSubscriber),
	)

	requestAddCmd.Flags().StringVar(&requestSubject, "subject", "", "Subject of the held message")
	requestListCmd.Flags().StringVar(&requestKind, "kind", "", "Filter by kind (moderation, subscription)")
	requestDeleteCmd.Flags().StringVar(&requestAction, "action", "discard", "Action taken (accept, reject, discard, defer)")
	requestCmd.AddCommand(requestAddCmd, requestListCmd, requestDeleteCmd)

	taskListCmd.Flags().StringVar(&taskUser, "user", "", "Dashboard user email")
	taskListCmd.Flags().StringVar(&taskOrder, "order", "", "Order by priority or made_on")
	taskListCmd.MarkFlagRequired("user")
	taskCmd.AddCommand(taskListCmd)

	rootCmd.AddCommand(domainCmd, listCmd, requestCmd, taskCmd)
}

func rosterCommand(use string, role store.Role) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <list_id> <email>",
		Short: fmt.Sprintf("Add an address to the %s roster", role),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := svc.AddRole(context.Background(), args[0], role, dashboard.RosterForm{Email: args[1]}); err != nil {
				return err
			}
			fmt.Printf("%s added as %s of %s\n", args[1], role, args[0])
			return nil
		},
	}
}

func runDomainAdd(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	d, err := svc.CreateDomain(context.Background(), dashboard.DomainForm{
		MailHost:    args[0],
		BaseURL:     args[1],
		Description: domainDescription,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Domain %s registered\n", d.MailHost)
	return nil
}

func runDomainList(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	domains, err := svc.Store().ListDomains(context.Background())
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		fmt.Println("No domains registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MAIL HOST\tBASE URL\tDESCRIPTION")
	fmt.Fprintln(w, "---------\t--------\t-----------")
	for _, d := range domains {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.MailHost, d.BaseURL, d.Description)
	}
	return w.Flush()
}

func runListCreate(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	l, err := svc.CreateList(context.Background(), dashboard.ListForm{
		FQDNListname: args[0],
		DisplayName:  listDisplayName,
	})
	if err != nil {
		return err
	}
	fmt.Printf("List %s created (%s)\n", l.ListID, l.DisplayName)
	return nil
}

func runListShow(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	l, err := svc.Store().GetList(context.Background(), args[0])
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("list %s not found", args[0])
	}

	fmt.Printf("List:         %s\n", l.ListID)
	fmt.Printf("Address:      %s\n", l.FQDNListname)
	fmt.Printf("Display name: %s\n", l.DisplayName)
	fmt.Printf("Owners:       %s\n", joinOrDash(l.Owners))
	fmt.Printf("Moderators:   %s\n", joinOrDash(l.Moderators))
	fmt.Printf("Subscribers:  %d\n", len(l.Members))
	for _, m := range l.Members {
		fmt.Printf("  %s\n", m)
	}
	return nil
}

func runRequestAdd(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	r, err := svc.AddRequest(context.Background(), dashboard.RequestForm{
		Kind:    args[0],
		ListID:  args[1],
		Email:   args[2],
		Subject: requestSubject,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Request %s recorded\n", r.ID)
	return nil
}

func runRequestList(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	reqs, err := svc.Requests(context.Background(), store.Kind(requestKind))
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Println("No pending requests")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tLIST\tEMAIL\tCREATED")
	fmt.Fprintln(w, "--\t----\t----\t-----\t-------")
	for _, r := range reqs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Kind, r.ListID, r.Email, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runRequestDelete(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.ResolveRequest(context.Background(), "cli", args[0], requestAction); err != nil {
		return err
	}
	fmt.Printf("Request %s resolved (%s)\n", args[0], requestAction)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	u := dashboard.User{Email: taskUser}
	if account := cfg.FindUser(taskUser); account != nil {
		u.Superuser = account.Superuser
	}

	ctx := context.Background()
	if _, err := svc.SyncTasks(ctx); err != nil {
		return err
	}

	var tasks []dashboard.TaskView
	if taskOrder != "" {
		tasks, err = svc.ReorderTasks(ctx, u, taskOrder)
	} else {
		tasks, err = svc.Tasks(ctx, u)
	}
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRIORITY\tTASK\tWHEN")
	fmt.Fprintln(w, "--\t--------\t----\t----")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, priorityName(t.Priority), t.Title, t.When)
	}
	return w.Flush()
}

func priorityName(p store.Priority) string {
	switch p {
	case store.PriorityHigh:
		return "high"
	case store.PriorityMedium:
		return "medium"
	case store.PriorityLow:
		return "low"
	default:
		return "-"
	}
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
