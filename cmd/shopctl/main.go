// shopctl is a command line storefront for the art shop API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/niksmo/artshop/internal/adapter/payment"
	"github.com/niksmo/artshop/internal/client"
	"github.com/niksmo/artshop/internal/core/checkout"
	"github.com/niksmo/artshop/internal/core/pricing"
	"github.com/niksmo/artshop/internal/storefront"
	"github.com/niksmo/artshop/pkg/sigctx"
	"github.com/spf13/pflag"
)

const tokenEnvName = "SHOPCTL_TOKEN"

type flags struct {
	api           string
	processor     string
	timeout       time.Duration
	category      string
	limit         int
	selected      []string
	paymentMethod string
	form          checkout.Form
}

func parseFlags() (flags, []string) {
	var f flags
	fs := pflag.NewFlagSet("shopctl", pflag.ExitOnError)
	fs.StringVar(&f.api, "api", "http://localhost:8000", "shop api base url")
	fs.StringVar(&f.processor, "processor", "http://localhost:8000/mock-processor",
		"payment processor base url")
	fs.DurationVar(&f.timeout, "timeout", 15*time.Second, "request timeout")
	fs.StringVar(&f.category, "category", "", "filter products by category")
	fs.IntVar(&f.limit, "limit", 20, "page size")
	fs.StringSliceVar(&f.selected, "select", nil, "product ids to check out")
	fs.StringVar(&f.paymentMethod, "payment-method", "pm_card_visa", "payment method")
	fs.StringVar(&f.form.Name, "name", "", "shipping name")
	fs.StringVar(&f.form.Province, "province", "", "shipping province")
	fs.StringVar(&f.form.District, "district", "", "shipping district")
	fs.StringVar(&f.form.City, "city", "", "shipping city")
	fs.StringVar(&f.form.Address, "address", "", "shipping street address")
	fs.StringVar(&f.form.Phone, "phone", "", "contact phone, 07XXXXXXXX")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: shopctl [flags] <command> [args]\n\n%s\n", commandsHelp)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	return f, fs.Args()
}

const commandsHelp = `commands:
  products | search <q> | product <id> | reviews <id>
  register <email> <name> <password> | login <email> <password> | logout | me
  send-otp <email> | reset-password <email> <otp> <new-password>
  cart | add <id> [qty] | inc <id> | dec <id> | remove <id>
  checkout | orders | wishlist | wish <id> | review <id> <rating> <comment>`

func tokenStore() client.TokenStore {
	if token, ok := os.LookupEnv(tokenEnvName); ok {
		mem := new(client.MemoryTokens)
		_ = mem.Save(token)
		return mem
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return client.FileTokens{Path: filepath.Join(dir, "shopctl", "token")}
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: slog.LevelWarn})))

	f, args := parseFlags()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, commandsHelp)
		os.Exit(2)
	}

	sigCtx, cancel := sigctx.NotifyContext()
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(sigCtx, f.timeout)
	defer cancelTimeout()

	cl, err := client.New(f.api, tokenStore(), nil)
	if err != nil {
		die(err)
	}

	if err := run(ctx, cl, f, args[0], args[1:]); err != nil {
		die(err)
	}
}

func run(ctx context.Context, cl *client.Client, f flags, cmd string, args []string) error {
	switch cmd {
	case "products":
		return printResult(cl.ListProducts(ctx, f.category, f.limit, 0))
	case "search":
		if err := need(args, 1); err != nil {
			return err
		}
		return printResult(cl.SearchProducts(ctx, args[0]))
	case "product":
		if err := need(args, 1); err != nil {
			return err
		}
		return printResult(cl.GetProduct(ctx, args[0]))
	case "reviews":
		if err := need(args, 1); err != nil {
			return err
		}
		return printResult(cl.ProductReviews(ctx, args[0]))
	case "register":
		if err := need(args, 3); err != nil {
			return err
		}
		return printResult(cl.Register(ctx, args[0], args[1], args[2]))
	case "login":
		if err := need(args, 2); err != nil {
			return err
		}
		return printResult(cl.Login(ctx, args[0], args[1]))
	case "logout":
		return cl.Logout(ctx)
	case "me":
		return printResult(cl.Me(ctx))
	case "send-otp":
		if err := need(args, 1); err != nil {
			return err
		}
		return cl.SendOTP(ctx, args[0])
	case "reset-password":
		if err := need(args, 3); err != nil {
			return err
		}
		return cl.ResetPassword(ctx, args[0], args[1], args[2])
	case "cart", "add", "inc", "dec", "remove":
		return runCart(ctx, cl, cmd, args)
	case "checkout":
		return runCheckout(ctx, cl, f)
	case "orders":
		return printResult(cl.ListOrders(ctx))
	case "wishlist":
		return printResult(cl.Wishlist(ctx))
	case "wish":
		if err := need(args, 1); err != nil {
			return err
		}
		return cl.AddToWishlist(ctx, args[0])
	case "review":
		if err := need(args, 3); err != nil {
			return err
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("rating: %w", err)
		}
		return printResult(cl.SubmitReview(ctx, args[0], rating, strings.Join(args[2:], " ")))
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, commandsHelp)
}

func runCart(ctx context.Context, cl *client.Client, cmd string, args []string) error {
	store := storefront.NewCartStore(cl, nil)
	if err := store.Fetch(ctx); err != nil {
		return err
	}

	var err error
	switch cmd {
	case "add":
		if err = need(args, 1); err != nil {
			return err
		}
		qty := 1
		if len(args) > 1 {
			if qty, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("qty: %w", err)
			}
		}
		err = store.Add(ctx, args[0], qty)
	case "inc", "dec":
		if err = need(args, 1); err != nil {
			return err
		}
		delta := 1
		if cmd == "dec" {
			delta = -1
		}
		err = store.UpdateQuantity(ctx, args[0], delta)
	case "remove":
		if err = need(args, 1); err != nil {
			return err
		}
		err = store.Remove(ctx, args[0])
	}
	if err != nil {
		return err
	}
	printCart(store)
	return nil
}

func runCheckout(ctx context.Context, cl *client.Client, f flags) error {
	me, err := cl.Me(ctx)
	if err != nil {
		return err
	}

	store := storefront.NewCartStore(cl, nil)
	if err := store.Fetch(ctx); err != nil {
		return err
	}
	for _, id := range f.selected {
		store.Selection().Toggle(id)
	}

	composer := storefront.NewComposer(me.Email, store.Snapshot(), store.Selection())
	for _, field := range checkout.Fields() {
		composer.Set(field, formValue(f.form, field))
	}
	handoff, err := composer.Submit()
	if errors.Is(err, storefront.ErrFormInvalid) {
		for field, msg := range composer.Errors() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
		}
		return err
	}
	if err != nil {
		return err
	}

	processor, err := payment.NewClient(f.processor, "", nil)
	if err != nil {
		return err
	}

	fmt.Printf("paying %s for %d item(s)\n",
		pricing.Format(handoff.Totals.FinalTotal), len(handoff.Items))
	order, err := storefront.NewPaymentAdapter(cl, processor, store).
		Pay(ctx, handoff, f.paymentMethod)
	var unsettled *storefront.ErrPaymentUnsettled
	if errors.As(err, &unsettled) {
		fmt.Printf("charged, order %s will be confirmed shortly\n", unsettled.OrderID)
		return nil
	}
	if err != nil {
		return err
	}
	return printJSON(order)
}

func formValue(form checkout.Form, field checkout.Field) string {
	switch field {
	case checkout.FieldName:
		return form.Name
	case checkout.FieldProvince:
		return form.Province
	case checkout.FieldDistrict:
		return form.District
	case checkout.FieldCity:
		return form.City
	case checkout.FieldAddress:
		return form.Address
	case checkout.FieldPhone:
		return form.Phone
	}
	return ""
}

func printCart(store *storefront.CartStore) {
	for _, it := range store.Items() {
		fmt.Printf("%-38s %-30s %3d x %s\n",
			it.ProductID, it.Name, it.Qty, pricing.Format(it.Price))
	}
	t := store.Totals()
	fmt.Printf("\nitems %s  discount %s (%s%%)  total %s  version %d\n",
		pricing.Format(t.ItemTotal), pricing.Format(t.Discount),
		t.SavingsPercentage(), pricing.Format(t.FinalTotal), store.Version())
}

func need(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func printResult[T any](v T, err error) error {
	if err != nil {
		return err
	}
	return printJSON(v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "shopctl: %v\n", err)
	os.Exit(1)
}
