package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"supply-console/internal/api"
	"supply-console/internal/app"
	"supply-console/internal/core"
	"supply-console/internal/views"
)

var errExit = errors.New("exit")

// console is one interactive session.
type console struct {
	ctx context.Context
	svc app.ApplicationService
	in  *bufio.Reader
	out io.Writer

	suppliers *views.ListView[core.Supplier]
	products  *views.ListView[core.Product]
	purchases *views.PurchaseListView
	screen    screen
}

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes natural language input through the AI drafting assistant.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	c := &console{
		ctx:       ctx,
		svc:       svc,
		in:        reader,
		out:       out,
		suppliers: svc.SupplierView(),
		products:  svc.ProductView(),
		purchases: svc.PurchaseView(),
	}
	defer func() {
		if c.screen != nil {
			c.screen.close()
		}
	}()

	fmt.Fprintln(out, "Supply Console")
	if who, err := svc.WhoAmI(ctx); err == nil {
		fmt.Fprintf(out, "Logged in as %s (%s)\n", who.Username, who.Role)
	} else {
		fmt.Fprintln(out, "Not logged in. Use /login to start.")
	}
	fmt.Fprintln(out, "Describe a purchase to draft it, or use /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err != nil {
				return
			}
			continue
		}

		// Slash prefix → deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := c.dispatch(input); err != nil {
				if err == errExit {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				c.fail(err)
			}
			continue
		}

		if err := c.draft(input); err != nil {
			if err == errExit {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			c.fail(err)
		}
	}
}

func (c *console) fail(err error) {
	if errors.Is(err, views.ErrNotConfirmed) {
		fmt.Fprintln(c.out, "Cancelled.")
		return
	}
	fmt.Fprintf(c.out, "Error: %s\n", c.svc.Message(err))
	if api.IsAuth(err) {
		fmt.Fprintln(c.out, "Use /login to sign in again.")
	}
}

func (c *console) dispatch(input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "login":
		return c.login(args)

	case "register":
		return c.register()

	case "logout":
		if err := c.svc.Logout(c.ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Logged out.")

	case "whoami":
		who, err := c.svc.WhoAmI(c.ctx)
		if err != nil {
			return err
		}
		printSession(c.out, who)

	case "suppliers":
		return c.open(&listScreen[core.Supplier]{view: c.suppliers, searcher: c.svc.SupplierSearcher(), print: printSuppliers}, args)

	case "products":
		return c.open(&listScreen[core.Product]{view: c.products, searcher: c.svc.ProductSearcher(), print: printProducts}, args)

	case "purchases":
		return c.open(&listScreen[core.Purchase]{view: c.purchases.ListView, searcher: c.svc.PurchaseSearcher(), print: printPurchases}, args)

	case "next", "n":
		return c.onScreen(func(s screen) error { return s.next(c.ctx) })

	case "prev", "p":
		return c.onScreen(func(s screen) error { return s.prev(c.ctx) })

	case "find", "f":
		query := strings.Join(args, " ")
		return c.onScreen(func(s screen) error { return s.find(c.ctx, query) })

	case "delete", "rm":
		id, err := idArg(args, "/delete <id>")
		if err != nil {
			return err
		}
		return c.onScreen(func(s screen) error { return s.remove(c.ctx, id, c.confirm) })

	case "supplier":
		id, err := idArg(args, "/supplier <id>")
		if err != nil {
			return err
		}
		s, err := c.svc.GetSupplier(c.ctx, id)
		if err != nil {
			return err
		}
		printSupplier(c.out, s)

	case "product":
		id, err := idArg(args, "/product <id>")
		if err != nil {
			return err
		}
		p, err := c.svc.GetProduct(c.ctx, id)
		if err != nil {
			return err
		}
		printProduct(c.out, p)

	case "purchase":
		id, err := idArg(args, "/purchase <id>")
		if err != nil {
			return err
		}
		p, err := c.svc.GetPurchase(c.ctx, id)
		if err != nil {
			return err
		}
		printPurchase(c.out, p)

	case "new-supplier":
		return c.supplierForm(core.NewSupplierDraft())

	case "edit-supplier":
		id, err := idArg(args, "/edit-supplier <id>")
		if err != nil {
			return err
		}
		s, err := c.svc.GetSupplier(c.ctx, id)
		if err != nil {
			return err
		}
		return c.supplierForm(core.SupplierDraftFrom(*s))

	case "new-product":
		return c.productForm(core.NewProductDraft())

	case "edit-product":
		id, err := idArg(args, "/edit-product <id>")
		if err != nil {
			return err
		}
		p, err := c.svc.GetProduct(c.ctx, id)
		if err != nil {
			return err
		}
		return c.productForm(core.ProductDraftFrom(*p))

	case "new-purchase":
		return c.purchaseForm(c.svc.NewPurchase())

	case "edit-purchase":
		id, err := idArg(args, "/edit-purchase <id>")
		if err != nil {
			return err
		}
		comp, err := c.svc.EditPurchase(c.ctx, id)
		if err != nil {
			return err
		}
		return c.purchaseForm(comp)

	case "deliver":
		return c.changeStatus(args, core.StatusDelivered, "/deliver <purchase-id>")

	case "cancel":
		return c.changeStatus(args, core.StatusCanceled, "/cancel <purchase-id>")

	case "by-supplier":
		id, err := idArg(args, "/by-supplier <supplier-id>")
		if err != nil {
			return err
		}
		res, err := c.svc.PurchasesBySupplier(c.ctx, id)
		if err != nil {
			return err
		}
		printPurchases(c.out, views.State[core.Purchase]{Items: res.Purchases, Total: res.Total, Searching: true})

	case "between":
		if len(args) < 2 {
			fmt.Fprintln(c.out, "Usage: /between <YYYY-MM-DD> <YYYY-MM-DD>")
			return nil
		}
		start, err := core.ParseDate(args[0])
		if err != nil {
			return &core.ValidationError{Field: "startDate", Message: err.Error()}
		}
		end, err := core.ParseDate(args[1])
		if err != nil {
			return &core.ValidationError{Field: "endDate", Message: err.Error()}
		}
		res, err := c.svc.PurchasesByDateRange(c.ctx, start, end)
		if err != nil {
			return err
		}
		printPurchases(c.out, views.State[core.Purchase]{Items: res.Purchases, Total: res.Total, Searching: true})

	case "dashboard", "dash":
		m, err := c.svc.Dashboard(c.ctx)
		if err != nil {
			return err
		}
		printMetrics(c.out, m)

	case "inventory", "stock":
		inv, err := c.svc.Inventory(c.ctx)
		if err != nil {
			return err
		}
		printInventory(c.out, inv)

	case "export":
		return c.export(args)

	case "help", "h":
		printHelp(c.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(c.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// open makes s the current list screen and shows page args[0] (1-based).
func (c *console) open(s screen, args []string) error {
	if c.screen != nil {
		c.screen.close()
	}
	c.screen = s
	page := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintln(c.out, "Page must be a positive number.")
			return nil
		}
		page = n - 1
	}
	if err := s.load(c.ctx, page); err != nil {
		return err
	}
	s.show(c.out)
	return nil
}

func (c *console) onScreen(fn func(screen) error) error {
	if c.screen == nil {
		fmt.Fprintln(c.out, "Open a list first: /suppliers, /products or /purchases.")
		return nil
	}
	if err := fn(c.screen); err != nil {
		return err
	}
	c.screen.show(c.out)
	return nil
}

func (c *console) changeStatus(args []string, to core.Status, usage string) error {
	id, err := idArg(args, usage)
	if err != nil {
		return err
	}
	updated, err := c.purchases.ChangeStatus(c.ctx, id, to, c.confirm)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Purchase #%d is now %s.\n", updated.ID, core.StatusLabel("en", updated.Status))
	return nil
}

func (c *console) login(args []string) error {
	username := ""
	if len(args) > 0 {
		username = args[0]
	} else {
		username = c.ask("Username: ")
	}
	password := c.ask("Password: ")
	who, err := c.svc.Login(c.ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Welcome, %s.\n", displayName(who))
	return nil
}

func (c *console) register() error {
	req := app.RegisterRequest{
		Username: c.ask("Username: "),
		Password: c.ask("Password: "),
		Email:    c.ask("Email: "),
		FullName: c.ask("Full name (optional): "),
		Phone:    c.ask("Phone (optional): "),
	}
	if err := c.svc.Register(c.ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Account created. Use /login to sign in.")
	return nil
}

func (c *console) export(args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: /export purchases|inventory <file.xlsx>")
		return nil
	}
	f, err := os.Create(args[1])
	if err != nil {
		return fmt.Errorf("create %s: %w", args[1], err)
	}
	defer f.Close()

	switch strings.ToLower(args[0]) {
	case "purchases":
		var rows []core.Purchase
		for page := 0; ; page++ {
			res, err := c.svc.ListPurchases(c.ctx, page)
			if err != nil {
				return err
			}
			rows = append(rows, res.Purchases...)
			if page+1 >= res.TotalPages || len(res.Purchases) == 0 {
				break
			}
		}
		err = c.svc.ExportPurchases(c.ctx, f, rows)
	case "inventory":
		err = c.svc.ExportInventory(c.ctx, f)
	default:
		fmt.Fprintln(c.out, "Usage: /export purchases|inventory <file.xlsx>")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Exported %s to %s.\n", args[0], args[1])
	return nil
}

// draft routes natural language through the AI assistant. Clarifications are
// answered in up to three rounds; an approved proposal opens the purchase form.
func (c *console) draft(input string) error {
	fmt.Fprintln(c.out, "[AI] Processing...")
	accumulated := input

	for rounds := 1; ; rounds++ {
		if rounds > 3 {
			fmt.Fprintln(c.out, "Could not produce a proposal. Try /new-purchase instead.")
			return nil
		}

		result, err := c.svc.DraftPurchase(c.ctx, accumulated)
		if err != nil {
			return err
		}

		if result.IsClarification {
			fmt.Fprintf(c.out, "\n[AI]: %s\n", result.ClarificationMessage)
			followUp := c.ask("> ")

			// Slash command during clarification cancels the AI flow and runs it.
			if strings.HasPrefix(followUp, "/") {
				fmt.Fprintln(c.out, "(AI session cancelled)")
				return c.dispatch(followUp)
			}
			if followUp == "" || strings.EqualFold(followUp, "cancel") {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
			accumulated = fmt.Sprintf("Original request: %s\nClarification requested: %s\nUser response: %s",
				accumulated, result.ClarificationMessage, followUp)
			fmt.Fprintln(c.out, "[AI] Thinking...")
			continue
		}

		proposal := result.Proposal
		printProposal(c.out, proposal)
		if proposal.Confidence < 0.6 {
			fmt.Fprintln(c.out, "\nWARNING: Low confidence proposal.")
		}
		if !c.yes("\nUse this draft? (y/n): ") {
			fmt.Fprintln(c.out, "Draft discarded.")
			return nil
		}

		comp := c.svc.NewPurchase()
		if err := c.svc.ApplyProposal(c.ctx, comp, *proposal); err != nil {
			return err
		}
		return c.purchaseForm(comp)
	}
}

func (c *console) confirm(_ context.Context, prompt string) (bool, error) {
	return c.yes(fmt.Sprintf("Confirm: %s? (y/n): ", prompt)), nil
}

func (c *console) ask(prompt string) string {
	fmt.Fprint(c.out, prompt)
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (c *console) yes(prompt string) bool {
	choice := strings.ToLower(c.ask(prompt))
	return choice == "y" || choice == "yes"
}

func idArg(args []string, usage string) (int64, error) {
	if len(args) < 1 {
		return 0, &core.ValidationError{Field: "id", Message: "usage: " + usage}
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Message: fmt.Sprintf("invalid id %q", args[0])}
	}
	return id, nil
}

func displayName(who *app.SessionResult) string {
	if who.FullName != "" {
		return who.FullName
	}
	return who.Username
}
