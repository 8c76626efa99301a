// Command shopper is a terminal storefront client. The signed-in user and the
// cart are kept under -state between runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/cart"
	"github.com/Lixing-Zhang/storefront/internal/client"
	"github.com/Lixing-Zhang/storefront/internal/models"
)

const usage = `usage: shopper [-server URL] [-state DIR] <command> [args]

commands:
  register <name> <email> <password>
  login <email> <password>
  logout
  whoami
  products [-search TEXT] [-category NAME]
  add <product-id>
  qty <product-id> <delta>
  remove <product-id>
  cart
  clear
  checkout -name N -email E -address A -city C -zip Z -card NUM -expiry MM/YY -cvv CVV
  orders
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("shopper", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	server := fs.String("server", envOr("STOREFRONT_URL", "http://localhost:3000"), "storefront base URL")
	stateDir := fs.String("state", envOr("SHOPPER_STATE_DIR", ".shopper"), "directory holding the session")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	storage, err := cart.NewFileStorage(*stateDir)
	if err != nil {
		return err
	}
	session, err := cart.Open(storage)
	if err != nil {
		return err
	}
	shopper := client.NewShopper(client.New(client.Config{BaseURL: *server, Timeout: *timeout}), session)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "register":
		if len(rest) != 3 {
			return errors.New("usage: register <name> <email> <password>")
		}
		user, err := shopper.Register(ctx, rest[0], rest[1], rest[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Registered and signed in as %s <%s>\n", user.Name, user.Email)

	case "login":
		if len(rest) != 2 {
			return errors.New("usage: login <email> <password>")
		}
		user, err := shopper.Login(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in as %s <%s>\n", user.Name, user.Email)

	case "logout":
		if err := shopper.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out")

	case "whoami":
		user, ok := session.User()
		if !ok {
			return client.ErrNotSignedIn
		}
		fmt.Fprintf(out, "%s <%s> (%s)\n", user.Name, user.Email, user.ID)

	case "products":
		return listProducts(ctx, shopper, rest, out)

	case "add":
		id, err := productArg(rest, "add <product-id>")
		if err != nil {
			return err
		}
		product, err := shopper.AddToCart(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s added to cart (%d items)\n", product.Name, session.Count())

	case "qty":
		if len(rest) != 2 {
			return errors.New("usage: qty <product-id> <delta>")
		}
		id, err := productArg(rest[:1], "qty <product-id> <delta>")
		if err != nil {
			return err
		}
		delta, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("invalid delta %q", rest[1])
		}
		if err := session.ChangeQuantity(id, delta); err != nil {
			return err
		}
		printCart(session, out)

	case "remove":
		id, err := productArg(rest, "remove <product-id>")
		if err != nil {
			return err
		}
		if err := session.RemoveItem(id); err != nil {
			return err
		}
		printCart(session, out)

	case "cart":
		printCart(session, out)

	case "clear":
		if err := session.ClearCart(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Cart cleared")

	case "checkout":
		details, err := parseCheckout(rest)
		if err != nil {
			return err
		}
		result, err := shopper.Checkout(ctx, details)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Payment successful! Order %s placed for $%.2f (%s)\n",
			result.OrderID, result.Total, result.PaymentIntent.ID)
		if len(result.SkippedProductIDs) > 0 {
			fmt.Fprintf(out, "Note: stock was not updated for products %v\n", result.SkippedProductIDs)
		}

	case "orders":
		orders, err := shopper.Orders(ctx)
		if err != nil {
			return err
		}
		printOrders(orders, out)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func listProducts(ctx context.Context, shopper *client.Shopper, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	search := fs.String("search", "", "free-text search over name and description")
	category := fs.String("category", "", "only this category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	api := shopper.API()
	var (
		products []models.Product
		err      error
	)
	switch {
	case *search != "":
		products, err = api.Search(ctx, *search)
	case *category != "":
		products, err = api.Category(ctx, *category)
	default:
		products, err = api.Products(ctx)
	}
	if err != nil {
		return err
	}

	if len(products) == 0 {
		fmt.Fprintln(out, "No products found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
	}
	return tw.Flush()
}

func printCart(session *cart.Session, out io.Writer) {
	items := session.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY")
	for _, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d\n", item.ID, item.Name, item.Price, item.Quantity)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "Total: $%s (%d items)\n", session.Total().StringFixed(2), session.Count())
}

func printOrders(orders []models.Order, out io.Writer) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders yet")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tPLACED\tITEMS\tTOTAL\tSTATUS")
	for _, o := range orders {
		units := 0
		for _, item := range o.Items {
			units += item.Quantity
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f %s\t%s\n",
			o.ID, o.CreatedAt.Local().Format(time.DateTime), units, o.Total, o.Currency, o.Status)
	}
	_ = tw.Flush()
}

func parseCheckout(args []string) (client.CheckoutDetails, error) {
	var d client.CheckoutDetails
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.StringVar(&d.Shipping.Name, "name", "", "recipient name")
	fs.StringVar(&d.Shipping.Email, "email", "", "recipient email")
	fs.StringVar(&d.Shipping.Address, "address", "", "street address")
	fs.StringVar(&d.Shipping.City, "city", "", "city")
	fs.StringVar(&d.Shipping.Zip, "zip", "", "postal code")
	fs.StringVar(&d.CardNumber, "card", "", "card number")
	fs.StringVar(&d.ExpiryDate, "expiry", "", "card expiry")
	fs.StringVar(&d.CVV, "cvv", "", "card security code")
	fs.StringVar(&d.Currency, "currency", "usd", "ISO currency code")
	if err := fs.Parse(args); err != nil {
		return d, err
	}
	return d, nil
}

func productArg(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("usage: " + usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", args[0])
	}
	return id, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
