package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"supply-console/internal/app"
	"supply-console/internal/core"
)

// Usage lists the one-shot commands.
const Usage = `Available: login, logout, whoami, suppliers, products, purchases, search,
get, draft, validate, apply, status, dashboard, inventory, export`

// Run executes a one-shot CLI command.
// args is os.Args[1:]; the first element is the subcommand name. JSON results
// are written to stdout; proposals for validate and apply are read from stdin.
func Run(ctx context.Context, svc app.ApplicationService, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", Usage)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	switch args[0] {
	case "login":
		if len(args) < 2 {
			return fmt.Errorf("usage: app login <username> [password]  (or set CONSOLE_PASSWORD)")
		}
		password := os.Getenv("CONSOLE_PASSWORD")
		if len(args) >= 3 {
			password = args[2]
		}
		who, err := svc.Login(ctx, args[1], password)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Logged in as %s (%s).\n", who.Username, who.Role)

	case "logout":
		if err := svc.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Logged out.")

	case "whoami":
		who, err := svc.WhoAmI(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(who)

	case "suppliers":
		res, err := svc.ListSuppliers(ctx, pageArg(args))
		if err != nil {
			return err
		}
		return enc.Encode(res)

	case "products":
		res, err := svc.ListProducts(ctx, pageArg(args))
		if err != nil {
			return err
		}
		return enc.Encode(res)

	case "purchases":
		res, err := svc.ListPurchases(ctx, pageArg(args))
		if err != nil {
			return err
		}
		return enc.Encode(res)

	case "search":
		if len(args) < 3 {
			return fmt.Errorf("usage: app search suppliers|products|purchases \"<query>\"")
		}
		query := strings.Join(args[2:], " ")
		var (
			res any
			err error
		)
		switch args[1] {
		case "suppliers":
			res, err = svc.SearchSuppliers(ctx, query)
		case "products":
			res, err = svc.SearchProducts(ctx, query)
		case "purchases":
			res, err = svc.SearchPurchases(ctx, query)
		default:
			return fmt.Errorf("cannot search %q", args[1])
		}
		if err != nil {
			return err
		}
		return enc.Encode(res)

	case "get":
		if len(args) < 3 {
			return fmt.Errorf("usage: app get supplier|product|purchase <id>")
		}
		id, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[2])
		}
		var res any
		switch args[1] {
		case "supplier":
			res, err = svc.GetSupplier(ctx, id)
		case "product":
			res, err = svc.GetProduct(ctx, id)
		case "purchase":
			res, err = svc.GetPurchase(ctx, id)
		default:
			return fmt.Errorf("cannot get %q", args[1])
		}
		if err != nil {
			return err
		}
		return enc.Encode(res)

	case "draft", "propose":
		if len(args) < 2 {
			return fmt.Errorf("usage: app draft \"<purchase description>\"")
		}
		result, err := svc.DraftPurchase(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if result.IsClarification {
			return fmt.Errorf("AI needs clarification: %s", result.ClarificationMessage)
		}
		return enc.Encode(result.Proposal)

	case "validate":
		var proposal core.Proposal
		if err := json.NewDecoder(stdin).Decode(&proposal); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		proposal.Normalize()
		if err := proposal.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(stdout, "Proposal is valid.")

	case "apply":
		var proposal core.Proposal
		if err := json.NewDecoder(stdin).Decode(&proposal); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		comp := svc.NewPurchase()
		if err := svc.ApplyProposal(ctx, comp, proposal); err != nil {
			return err
		}
		saved, err := svc.SubmitPurchase(ctx, comp)
		if err != nil {
			return err
		}
		return enc.Encode(saved)

	case "status":
		if len(args) < 3 {
			return fmt.Errorf("usage: app status <purchase-id> DELIVERED|CANCELED")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}
		to, err := core.ParseStatus(args[2])
		if err != nil {
			return err
		}
		updated, err := svc.ChangePurchaseStatus(ctx, id, to)
		if err != nil {
			return err
		}
		return enc.Encode(updated)

	case "dashboard":
		m, err := svc.Dashboard(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(m)

	case "inventory":
		inv, err := svc.Inventory(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(inv)

	case "export":
		if len(args) < 3 {
			return fmt.Errorf("usage: app export purchases|inventory <file.xlsx>")
		}
		return export(ctx, svc, args[1], args[2])

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], Usage)
	}
	return nil
}

func export(ctx context.Context, svc app.ApplicationService, what, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	switch what {
	case "purchases":
		var rows []core.Purchase
		for page := 0; ; page++ {
			res, err := svc.ListPurchases(ctx, page)
			if err != nil {
				return err
			}
			rows = append(rows, res.Purchases...)
			if page+1 >= res.TotalPages || len(res.Purchases) == 0 {
				break
			}
		}
		return svc.ExportPurchases(ctx, f, rows)
	case "inventory":
		return svc.ExportInventory(ctx, f)
	}
	return fmt.Errorf("cannot export %q", what)
}

func pageArg(args []string) int {
	if len(args) < 2 {
		return 0
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 0
	}
	return n - 1
}
